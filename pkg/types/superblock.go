package types

import "fmt"

const (
	Magic uint32 = 0x10203040

	SuperblockSize Byte = 32

	BadMagicErr  ConstError = "bad magic"
	BadLayoutErr ConstError = "bad layout"
)

// Superblock describes the image geometry. Disk layout:
//
//	[ boot | super | log | inodes | bitmap | data ]
type Superblock struct {
	Magic       uint32 `json:"magic"`
	Size        Block  `json:"size"`
	DataBlocks  Block  `json:"dataBlocks"`
	Inodes      Ino    `json:"inodes"`
	LogBlocks   Block  `json:"logBlocks"`
	LogStart    Block  `json:"logStart"`
	InodeStart  Block  `json:"inodeStart"`
	BitmapStart Block  `json:"bitmapStart"`
}

func (sb *Superblock) Validate() error {
	if sb.Magic != Magic {
		return fmt.Errorf(
			"validating superblock: magic `%#x`: %w",
			sb.Magic,
			BadMagicErr,
		)
	}
	if !(SuperblockBlock < sb.LogStart &&
		sb.LogStart <= sb.InodeStart &&
		sb.InodeStart < sb.BitmapStart &&
		sb.BitmapStart < sb.Size) {
		return fmt.Errorf(
			"validating superblock: log `%d`, inodes `%d`, bitmap `%d`, "+
				"size `%d`: %w",
			sb.LogStart,
			sb.InodeStart,
			sb.BitmapStart,
			sb.Size,
			BadLayoutErr,
		)
	}
	if sb.Inodes > MaxInodes {
		return fmt.Errorf(
			"validating superblock: `%d` inodes exceeds `%d`: %w",
			sb.Inodes,
			MaxInodes,
			BadLayoutErr,
		)
	}
	return nil
}

// InodeBlock returns the block containing `ino` ("mailman" arithmetic).
func (sb *Superblock) InodeBlock(ino Ino) Block {
	return sb.InodeStart + Block(ino/InodesPerBlock)
}

// InodeOffset returns the byte offset of `ino` within its inode block.
func (sb *Superblock) InodeOffset(ino Ino) Byte {
	return Byte(ino%InodesPerBlock) * InodeSize
}

// InodeBlocks is the number of blocks in the inode region.
func (sb *Superblock) InodeBlocks() Block {
	return Block(sb.Inodes/InodesPerBlock) + 1
}

// BitmapBlock returns the bitmap block holding the bit for block `b`.
func (sb *Superblock) BitmapBlock(b Block) Block {
	return sb.BitmapStart + b/BitsPerBlock
}

// BitmapBlocks is the number of blocks in the bitmap region.
func (sb *Superblock) BitmapBlocks() Block {
	return sb.Size/BitsPerBlock + 1
}

// FirstDataBlock is the first block after all metadata regions.
func (sb *Superblock) FirstDataBlock() Block {
	return sb.BitmapStart + sb.BitmapBlocks()
}
