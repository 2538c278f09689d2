package alloc

import . "github.com/weberc2/xv6fs/pkg/types"

// InoAllocator hands out inode numbers. Handle `i` is inode `i`; inode 0 is
// never handed out because it marks empty directory slots.
type InoAllocator struct {
	Allocator
}

func NewInoAllocator(inodes Ino) InoAllocator {
	bm := New(uint64(inodes))
	bm.Reserve(uint64(InoNil))
	return InoAllocator{bm}
}

func (ia InoAllocator) Alloc() (Ino, bool) {
	if ino, ok := ia.Allocator.Alloc(); ok {
		return Ino(ino), true
	}
	return InoNil, false
}

func (ia InoAllocator) Free(ino Ino) {
	if ino != InoNil {
		ia.Allocator.Free(uint64(ino))
	}
}

func (ia InoAllocator) Reserve(ino Ino) { ia.Allocator.Reserve(uint64(ino)) }

func (ia InoAllocator) IsSet(ino Ino) bool { return ia.Allocator.IsSet(uint64(ino)) }
