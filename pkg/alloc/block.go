package alloc

import . "github.com/weberc2/xv6fs/pkg/types"

// BlockAllocator hands out block numbers. Handle `i` is block `i`, matching
// the on-disk bitmap where bit `b` describes block `b`.
type BlockAllocator struct {
	Allocator
}

func (ba BlockAllocator) Alloc() (Block, bool) {
	if b, ok := ba.Allocator.Alloc(); ok {
		return Block(b), true
	}
	return BlockNil, false
}

func (ba BlockAllocator) Free(b Block) { ba.Allocator.Free(uint64(b)) }

func (ba BlockAllocator) Reserve(b Block) { ba.Allocator.Reserve(uint64(b)) }

func (ba BlockAllocator) IsSet(b Block) bool { return ba.Allocator.IsSet(uint64(b)) }
