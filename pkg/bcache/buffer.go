package bcache

import (
	"sync"

	"github.com/weberc2/xv6fs/pkg/io"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// Buffer is an in-memory copy of one device block. Buffers are owned by the
// cache for its whole lifetime; callers borrow them between `Get`/`Read` and
// the matching `Release`.
type Buffer struct {
	dev   io.Device
	block Block
	valid bool
	dirty bool
	refs  int
	err   error
	data  [BlockSize]byte

	// recency list links (arena indices; `nilIndex` terminates the list)
	prev int
	next int

	// serializes loads and writes of this buffer's data
	mutex sync.Mutex
}

func (b *Buffer) Dev() io.Device { return b.dev }

func (b *Buffer) Block() Block { return b.block }

// Data returns the buffer's payload. Callers may modify it in place while
// they hold a reference, then `MarkDirty` and `Write`.
func (b *Buffer) Data() *[BlockSize]byte { return &b.data }

// Valid reports whether the payload reflects the block's on-disk content.
func (b *Buffer) Valid() bool { return b.valid }

// Dirty reports whether the payload is newer than the last successful write.
func (b *Buffer) Dirty() bool { return b.dirty }

// Refs is the number of outstanding holders.
func (b *Buffer) Refs() int { return b.refs }

// Err is the failure recorded by the last device transfer of this buffer, if
// any.
func (b *Buffer) Err() error { return b.err }

func (b *Buffer) MarkDirty() {
	b.mutex.Lock()
	b.dirty = true
	b.mutex.Unlock()
}
