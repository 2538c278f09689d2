package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openImage opens the image file and takes an advisory lock on it for the
// lifetime of the returned file: exclusive for writers, shared for readers.
// Closing the file releases the lock.
func openImage(path string, readOnly bool) (*os.File, error) {
	flag, how := os.O_RDWR, unix.LOCK_EX
	if readOnly {
		flag, how = os.O_RDONLY, unix.LOCK_SH
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), how|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"locking image `%s`: another client holds it: %w",
			path,
			err,
		)
	}
	return file, nil
}

// createImage creates (or truncates) an image file of `size` bytes and locks
// it exclusively.
func createImage(path string, size int64) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating image: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"locking image `%s`: another client holds it: %w",
			path,
			err,
		)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return nil, fmt.Errorf("sizing image `%s`: %w", path, err)
	}
	return file, nil
}
