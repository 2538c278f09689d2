package alloc

import (
	"github.com/weberc2/xv6fs/pkg/math"
)

const bitsPerByte = 8

// Bitmap tracks `size` handles. Bit `i` lives in byte `i/8` at position
// `i%8` counting from the least significant bit, which is how xv6 lays out
// its free-block bitmap.
type Bitmap struct {
	bytes []byte
	size  uint64
}

func New(size uint64) *Bitmap {
	return &Bitmap{
		bytes: make([]byte, math.DivRoundUp(size, bitsPerByte)),
		size:  size,
	}
}

// Load builds a bitmap of `size` handles from its serialized form. Bytes
// beyond `size` bits are ignored and missing bytes read as free.
func Load(data []byte, size uint64) *Bitmap {
	bm := New(size)
	copy(bm.bytes, data)
	return bm
}

func (bm *Bitmap) Alloc() (uint64, bool) {
	for i, byt := range bm.bytes {
		if byt == 0xff {
			continue
		}
		for bit := uint64(0); bit < bitsPerByte; bit++ {
			handle := uint64(i)*bitsPerByte + bit
			if handle >= bm.size {
				return 0, false
			}
			if byt&(1<<bit) == 0 {
				bm.bytes[i] |= 1 << bit
				return handle, true
			}
		}
	}
	return 0, false
}

func (bm *Bitmap) Free(handle uint64) {
	if handle < bm.size {
		bm.bytes[handle/bitsPerByte] &^= 1 << (handle % bitsPerByte)
	}
}

func (bm *Bitmap) Reserve(handle uint64) {
	if handle < bm.size {
		bm.bytes[handle/bitsPerByte] |= 1 << (handle % bitsPerByte)
	}
}

func (bm *Bitmap) IsSet(handle uint64) bool {
	return handle < bm.size &&
		bm.bytes[handle/bitsPerByte]&(1<<(handle%bitsPerByte)) != 0
}

// Bytes is the serialized bitmap.
func (bm *Bitmap) Bytes() []byte { return bm.bytes }

func (bm *Bitmap) Size() uint64 { return bm.size }

// Used counts the set bits.
func (bm *Bitmap) Used() uint64 {
	var used uint64
	for handle := uint64(0); handle < bm.size; handle++ {
		if bm.IsSet(handle) {
			used++
		}
	}
	return used
}
