package types

type Block uint32

type Byte int64

const (
	BlockSize Byte = 1024

	// BlockNil marks an unused block address slot. Block 0 is the boot
	// block so it is never a valid data block.
	BlockNil Block = 0

	// SuperblockBlock is the block holding the superblock; block 0 is the
	// boot block.
	SuperblockBlock Block = 1

	// BitsPerBlock is the number of blocks whose allocation state fits in a
	// single bitmap block.
	BitsPerBlock Block = Block(BlockSize * 8)

	BlockPointerSize Byte = 4
)

// Offset returns the byte offset of the block on its device.
func (b Block) Offset() Byte { return Byte(b) * BlockSize }
