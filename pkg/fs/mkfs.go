package fs

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/encode"
	"github.com/weberc2/xv6fs/pkg/io"
	. "github.com/weberc2/xv6fs/pkg/types"
)

type FormatParams struct {
	Size      Block `json:"size" yaml:"size"`
	Inodes    Ino   `json:"inodes" yaml:"inodes"`
	LogBlocks Block `json:"logBlocks" yaml:"logBlocks"`
}

// DefaultFormatParams matches xv6's FSSIZE, NINODES and LOGSIZE.
func DefaultFormatParams() FormatParams {
	return FormatParams{Size: 2000, Inodes: 200, LogBlocks: 30}
}

// Superblock computes the layout of an image with these parameters:
//
//	[ boot | super | log | inodes | bitmap | data ]
func (params *FormatParams) Superblock() Superblock {
	sb := Superblock{
		Magic:     Magic,
		Size:      params.Size,
		Inodes:    params.Inodes,
		LogBlocks: params.LogBlocks,
		LogStart:  SuperblockBlock + 1,
	}
	sb.InodeStart = sb.LogStart + sb.LogBlocks
	sb.BitmapStart = sb.InodeStart + sb.InodeBlocks()
	if first := sb.FirstDataBlock(); first < sb.Size {
		sb.DataBlocks = sb.Size - first
	}
	return sb
}

// Format writes an empty file system to `dev`: zeroed blocks, the
// superblock, a root directory (inode 1) holding `.` and `..`, and a block
// bitmap marking every metadata block and the root's data block as used.
func Format(dev io.Device, params *FormatParams, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sb := params.Superblock()
	if err := sb.Validate(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	if sb.Inodes <= InoRoot || sb.DataBlocks < 1 {
		return fmt.Errorf(
			"formatting: `%d` inodes and `%d` data blocks: %w",
			sb.Inodes,
			sb.DataBlocks,
			BadLayoutErr,
		)
	}
	logger.WithFields(logrus.Fields{
		"size":         sb.Size,
		"inodes":       sb.Inodes,
		"logBlocks":    sb.LogBlocks,
		"inodeBlocks":  sb.InodeBlocks(),
		"bitmapBlocks": sb.BitmapBlocks(),
		"dataBlocks":   sb.DataBlocks,
	}).Debug("formatting")

	var block [BlockSize]byte
	for b := Block(0); b < sb.Size; b++ {
		if err := io.WriteBlock(dev, b, &block); err != nil {
			return fmt.Errorf("formatting: zeroing: %w", err)
		}
	}

	encode.EncodeSuperblock(&sb, (*[SuperblockSize]byte)(block[:SuperblockSize]))
	if err := io.WriteBlock(dev, SuperblockBlock, &block); err != nil {
		return fmt.Errorf("formatting: writing superblock: %w", err)
	}

	// root directory
	rootBlock := sb.FirstDataBlock()
	block = [BlockSize]byte{}
	encode.EncodeDirEntry(
		&DirEntry{Ino: InoRoot, Name: selfName},
		encode.DirEntryAt(&block, 0),
	)
	encode.EncodeDirEntry(
		&DirEntry{Ino: InoRoot, Name: parentName},
		encode.DirEntryAt(&block, 1),
	)
	if err := io.WriteBlock(dev, rootBlock, &block); err != nil {
		return fmt.Errorf("formatting: writing root directory: %w", err)
	}

	root := Inode{
		Ino:   InoRoot,
		Type:  FileTypeDir,
		Nlink: 1,
		Size:  uint32(BlockSize),
	}
	root.Addrs[0] = rootBlock
	block = [BlockSize]byte{}
	encode.EncodeInode(&root, inodeSlot(&block, &sb, InoRoot))
	if err := io.WriteBlock(dev, sb.InodeBlock(InoRoot), &block); err != nil {
		return fmt.Errorf("formatting: writing root inode: %w", err)
	}

	// everything up to and including the root's block is in use
	used := rootBlock + 1
	for i := Block(0); i < sb.BitmapBlocks(); i++ {
		block = [BlockSize]byte{}
		for b := i * BitsPerBlock; b < used && b < (i+1)*BitsPerBlock; b++ {
			bit := b % BitsPerBlock
			block[bit/8] |= 1 << (bit % 8)
		}
		if err := io.WriteBlock(dev, sb.BitmapStart+i, &block); err != nil {
			return fmt.Errorf("formatting: writing bitmap: %w", err)
		}
	}
	return nil
}
