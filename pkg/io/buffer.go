package io

import (
	"fmt"
	"io"

	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	NegativeOffsetErr ConstError = "negative offset"
	InvalidWhenceErr  ConstError = "invalid whence"
)

// Buffer is an in-memory `Device`, e.g. an image built by a test. Unlike a
// file, seeking past the end zero-fills the gap immediately, so `Len()`
// always reflects the furthest position touched.
type Buffer struct {
	data   []byte
	cursor int
}

func NewBuffer(data []byte) *Buffer { return &Buffer{data: data} }

func (b *Buffer) grow(end int) {
	if gap := end - len(b.data); gap > 0 {
		b.data = append(b.data, make([]byte, gap)...)
	}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(b.cursor + len(p))
	n := copy(b.data[b.cursor:], p)
	b.cursor += n
	return n, nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.cursor >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.cursor:])
	b.cursor += n
	return n, nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = b.cursor
	case io.SeekEnd:
		base = len(b.data)
	default:
		return int64(b.cursor), fmt.Errorf(
			"seeking `%d`: %w `%d`",
			offset,
			InvalidWhenceErr,
			whence,
		)
	}
	target := base + int(offset)
	if target < 0 {
		return int64(b.cursor), fmt.Errorf(
			"seeking to `%d`: %w",
			target,
			NegativeOffsetErr,
		)
	}
	b.cursor = target
	b.grow(target)
	return int64(target), nil
}

// Bytes returns the backing slice; writes through the buffer are visible in
// it.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Len() int { return len(b.data) }

// Blocks is the number of whole blocks in the buffer.
func (b *Buffer) Blocks() Block { return Block(Byte(len(b.data)) / BlockSize) }
