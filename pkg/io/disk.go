package io

import (
	"fmt"
	"io"

	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	DeviceErr ConstError = "device failure"
)

// ReadBlock reads exactly one block at block `b` of `dev` into `p`. Devices
// implementing `io.ReaderAt` are read positionally; others are repositioned
// first, so callers sharing such a device must serialize transfers. A failed
// seek or a short read is reported as a `DeviceErr`.
func ReadBlock(dev Device, b Block, p *[BlockSize]byte) error {
	if ra, ok := dev.(io.ReaderAt); ok {
		if _, err := ra.ReadAt(p[:], int64(b.Offset())); err != nil {
			return fmt.Errorf(
				"reading block `%d`: %w: %v",
				b,
				DeviceErr,
				err,
			)
		}
		return nil
	}
	if err := seek(dev, b); err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	if _, err := io.ReadFull(dev, p[:]); err != nil {
		return fmt.Errorf(
			"reading block `%d`: %w: %v",
			b,
			DeviceErr,
			err,
		)
	}
	return nil
}

// WriteBlock writes exactly one block from `p` at block `b` of `dev`,
// positionally when `dev` implements `io.WriterAt`.
func WriteBlock(dev Device, b Block, p *[BlockSize]byte) error {
	var (
		n   int
		err error
	)
	if wa, ok := dev.(io.WriterAt); ok {
		n, err = wa.WriteAt(p[:], int64(b.Offset()))
	} else {
		if err := seek(dev, b); err != nil {
			return fmt.Errorf("writing block `%d`: %w", b, err)
		}
		n, err = dev.Write(p[:])
	}
	if err != nil {
		return fmt.Errorf(
			"writing block `%d`: %w: %v",
			b,
			DeviceErr,
			err,
		)
	}
	if Byte(n) != BlockSize {
		return fmt.Errorf(
			"writing block `%d`: %w: short write of `%d` bytes",
			b,
			DeviceErr,
			n,
		)
	}
	return nil
}

func seek(dev Device, b Block) error {
	if _, err := dev.Seek(int64(b.Offset()), io.SeekStart); err != nil {
		return fmt.Errorf(
			"seeking to `%d`: %w: %v",
			b.Offset(),
			DeviceErr,
			err,
		)
	}
	return nil
}
