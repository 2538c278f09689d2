package bcache

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/io"
	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	OutOfBuffersErr ConstError = "no free buffers"

	nilIndex = -1
)

// Cache bounds the number of resident block copies to a fixed pool and keeps
// at most one buffer per (device, block) key. Buffers are kept in a single
// recency list: `head` is the most recently released buffer and `tail` the
// least recently released one. Lock order is `Cache.mutex`, then
// `Buffer.mutex`, then `Cache.devMutex`.
type Cache struct {
	mutex sync.Mutex

	// devMutex serializes device transfers; devices without positional I/O
	// share a single cursor between a seek and the transfer that follows.
	devMutex sync.Mutex

	pool   []Buffer
	head   int
	tail   int
	logger logrus.FieldLogger
	stats  stats
}

// New allocates a cache of `capacity` buffers. A capacity below one is a
// programming error.
func New(capacity int, logger logrus.FieldLogger) *Cache {
	if capacity < 1 {
		panic(fmt.Sprintf("bcache: invalid capacity `%d`", capacity))
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Cache{
		pool:   make([]Buffer, capacity),
		head:   nilIndex,
		tail:   nilIndex,
		logger: logger,
	}
	// each buffer is linked in at the most-recently-used end, so buffer 0
	// starts out as the least recently used
	for i := range c.pool {
		c.pool[i].prev = nilIndex
		c.pool[i].next = nilIndex
		c.pushFront(i)
	}
	return c
}

// Capacity is the fixed number of buffers in the pool.
func (c *Cache) Capacity() int { return len(c.pool) }

// Get returns the buffer for (`dev`, `block`) with its reference count
// incremented. The buffer's content is only meaningful if `Valid()`; use
// `Read` to have it loaded. Fails with `OutOfBuffersErr` when every buffer
// is referenced.
func (c *Cache) Get(dev io.Device, block Block) (*Buffer, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// is the block already cached?
	for i := c.head; i != nilIndex; i = c.pool[i].next {
		if b := &c.pool[i]; b.dev == dev && b.block == block {
			b.refs++
			c.stats.hits.Add(1)
			return b, nil
		}
	}
	c.stats.misses.Add(1)

	// not cached; recycle the least recently used unreferenced buffer
	for i := c.tail; i != nilIndex; i = c.pool[i].prev {
		b := &c.pool[i]
		if b.refs != 0 {
			continue
		}
		if err := c.repurpose(b, dev, block); err != nil {
			return nil, fmt.Errorf(
				"getting buffer for block `%d`: %w",
				block,
				err,
			)
		}
		return b, nil
	}

	return nil, fmt.Errorf(
		"getting buffer for block `%d`: all `%d` buffers referenced: %w",
		block,
		len(c.pool),
		OutOfBuffersErr,
	)
}

// repurpose rekeys an unreferenced buffer. A dirty buffer is written back
// first so its content isn't lost. Requires `c.mutex`.
func (c *Cache) repurpose(b *Buffer, dev io.Device, block Block) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.dev != nil {
		if b.dirty && b.valid {
			c.logger.WithField("block", b.block).
				Debug("writing back dirty buffer before eviction")
			if err := c.flush(b); err != nil {
				return fmt.Errorf(
					"evicting dirty block `%d`: %w",
					b.block,
					err,
				)
			}
			c.stats.writes.Add(1)
		}
		c.stats.evictions.Add(1)
		c.logger.WithFields(logrus.Fields{
			"evicted": b.block,
			"block":   block,
		}).Debug("recycling buffer")
	}

	b.dev = dev
	b.block = block
	b.valid = false
	b.dirty = false
	b.err = nil
	b.refs = 1
	return nil
}

// Read returns a referenced buffer holding the on-disk content of
// (`dev`, `block`), loading it if necessary. On a device failure the error is
// recorded on the buffer, the reference is dropped and the error is returned.
func (c *Cache) Read(dev io.Device, block Block) (*Buffer, error) {
	b, err := c.Get(dev, block)
	if err != nil {
		return nil, fmt.Errorf("reading block `%d`: %w", block, err)
	}

	b.mutex.Lock()
	if !b.valid {
		c.logger.WithField("block", block).Debug("loading block from device")
		c.devMutex.Lock()
		err = io.ReadBlock(dev, block, &b.data)
		c.devMutex.Unlock()
		if err != nil {
			b.err = err
			b.mutex.Unlock()
			c.Release(b)
			return nil, fmt.Errorf("reading block `%d`: %w", block, err)
		}
		c.stats.reads.Add(1)
		b.err = nil
		b.valid = true
	}
	b.mutex.Unlock()
	return b, nil
}

// Write persists the buffer's current content immediately. The buffer must
// be referenced by the caller.
func (c *Cache) Write(b *Buffer) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := c.flush(b); err != nil {
		return fmt.Errorf("writing block `%d`: %w", b.block, err)
	}
	c.stats.writes.Add(1)
	return nil
}

// flush writes the payload to the device, after which the payload mirrors
// the block on disk. The caller must hold `b.mutex`.
func (c *Cache) flush(b *Buffer) error {
	c.devMutex.Lock()
	err := io.WriteBlock(b.dev, b.block, &b.data)
	c.devMutex.Unlock()
	if err != nil {
		b.err = err
		return err
	}
	b.err = nil
	b.dirty = false
	b.valid = true
	return nil
}

// Release drops one reference. When the last reference is dropped the
// buffer becomes the most recently used.
func (c *Cache) Release(b *Buffer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if b.refs > 0 {
		b.refs--
	}
	if b.refs == 0 {
		i := c.indexOf(b)
		c.unlink(i)
		c.pushFront(i)
	}
}

// Pin takes an extra reference on a buffer the caller already holds.
func (c *Cache) Pin(b *Buffer) {
	c.mutex.Lock()
	b.refs++
	c.mutex.Unlock()
}

// Unpin drops a reference taken by `Pin`. Unlike `Release` it does not
// touch the recency order.
func (c *Cache) Unpin(b *Buffer) {
	c.mutex.Lock()
	if b.refs > 0 {
		b.refs--
	}
	c.mutex.Unlock()
}

// Sync writes every valid, dirty buffer to its device, referenced or not, in
// recency order. It returns the number of blocks written. Buffers that fail
// to write stay dirty; the first failure is returned after the pass.
func (c *Cache) Sync() (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var (
		written  int
		firstErr error
	)
	for i := c.head; i != nilIndex; i = c.pool[i].next {
		b := &c.pool[i]
		b.mutex.Lock()
		if b.valid && b.dirty {
			if err := c.flush(b); err != nil {
				c.logger.WithError(err).WithField("block", b.block).
					Warn("syncing buffer")
				if firstErr == nil {
					firstErr = fmt.Errorf("syncing: %w", err)
				}
			} else {
				written++
				c.stats.writes.Add(1)
			}
		}
		b.mutex.Unlock()
	}
	c.logger.WithField("written", written).Debug("synced buffer cache")
	return written, firstErr
}

func (c *Cache) indexOf(b *Buffer) int {
	for i := range c.pool {
		if &c.pool[i] == b {
			return i
		}
	}
	panic("bcache: buffer does not belong to this cache")
}

func (c *Cache) unlink(i int) {
	b := &c.pool[i]
	if b.prev != nilIndex {
		c.pool[b.prev].next = b.next
	} else {
		c.head = b.next
	}
	if b.next != nilIndex {
		c.pool[b.next].prev = b.prev
	} else {
		c.tail = b.prev
	}
	b.prev = nilIndex
	b.next = nilIndex
}

func (c *Cache) pushFront(i int) {
	b := &c.pool[i]
	b.prev = nilIndex
	b.next = c.head
	if c.head != nilIndex {
		c.pool[c.head].prev = i
	} else {
		c.tail = i
	}
	c.head = i
}
