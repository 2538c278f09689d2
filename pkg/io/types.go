package io

import (
	"io"
)

// Device is the backing store of a file system image: anything which can be
// repositioned and then read or written, e.g. an `*os.File` or a `*Buffer`.
// Devices are compared by identity when used as cache keys, so
// implementations should be pointer types.
type Device interface {
	io.ReadWriteSeeker
}
