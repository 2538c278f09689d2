package encode

import (
	"fmt"

	. "github.com/weberc2/xv6fs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) {
	p := b[:]
	putU32(p, superblockMagicStart, sb.Magic)
	putBlock(p, superblockSizeStart, sb.Size)
	putBlock(p, superblockDataBlocksStart, sb.DataBlocks)
	putIno(p, superblockInodesStart, sb.Inodes)
	putBlock(p, superblockLogBlocksStart, sb.LogBlocks)
	putBlock(p, superblockLogStartStart, sb.LogStart)
	putBlock(p, superblockInodeStartStart, sb.InodeStart)
	putBlock(p, superblockBitmapStartStart, sb.BitmapStart)
}

// DecodeSuperblock decodes and validates a superblock. `sb` is left untouched
// if validation fails.
func DecodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]
	tmp := Superblock{
		Magic:       getU32(p, superblockMagicStart),
		Size:        getBlock(p, superblockSizeStart),
		DataBlocks:  getBlock(p, superblockDataBlocksStart),
		Inodes:      getIno(p, superblockInodesStart),
		LogBlocks:   getBlock(p, superblockLogBlocksStart),
		LogStart:    getBlock(p, superblockLogStartStart),
		InodeStart:  getBlock(p, superblockInodeStartStart),
		BitmapStart: getBlock(p, superblockBitmapStartStart),
	}
	if err := tmp.Validate(); err != nil {
		return fmt.Errorf("decoding superblock: %w", err)
	}
	*sb = tmp
	return nil
}

const (
	superblockMagicStart       Byte = 0
	superblockSizeStart        Byte = 4
	superblockDataBlocksStart  Byte = 8
	superblockInodesStart      Byte = 12
	superblockLogBlocksStart   Byte = 16
	superblockLogStartStart    Byte = 20
	superblockInodeStartStart  Byte = 24
	superblockBitmapStartStart Byte = 28
)
