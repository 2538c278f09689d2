package fs

import (
	"fmt"

	"github.com/weberc2/xv6fs/pkg/encode"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// inodeSlot returns the 64-byte record of `ino` within its inode block.
func inodeSlot(
	block *[BlockSize]byte,
	sb *Superblock,
	ino Ino,
) *[InodeSize]byte {
	offset := sb.InodeOffset(ino)
	return (*[InodeSize]byte)(block[offset : offset+InodeSize])
}

func (fs *FileSystem) checkIno(ino Ino) error {
	if ino >= fs.superblock.Inodes {
		return fmt.Errorf(
			"inode `%d` of `%d`: %w",
			ino,
			fs.superblock.Inodes,
			InoOutOfRangeErr,
		)
	}
	return nil
}

// readInodeRecord reads the record for `ino` whether or not it is free.
func (fs *FileSystem) readInodeRecord(ino Ino) (Inode, error) {
	if err := fs.checkIno(ino); err != nil {
		return Inode{}, err
	}
	buf, err := fs.cache.Read(fs.dev, fs.superblock.InodeBlock(ino))
	if err != nil {
		return Inode{}, err
	}
	defer fs.cache.Release(buf)

	inode := Inode{Ino: ino}
	encode.DecodeInode(&inode, inodeSlot(buf.Data(), &fs.superblock, ino))
	return inode, nil
}

// ReadInode returns the inode numbered `ino`. Free inodes are reported as
// `FreeInodeErr`.
func (fs *FileSystem) ReadInode(ino Ino) (Inode, error) {
	inode, err := fs.readInodeRecord(ino)
	if err != nil {
		return Inode{}, fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	if inode.IsFree() {
		return Inode{}, fmt.Errorf("reading inode `%d`: %w", ino, FreeInodeErr)
	}
	return inode, nil
}

// UpdateInode encodes `inode` into its slot and writes the containing block
// through to the device.
func (fs *FileSystem) UpdateInode(inode *Inode) error {
	if err := fs.checkWritable(); err != nil {
		return fmt.Errorf("updating inode `%d`: %w", inode.Ino, err)
	}
	if err := fs.checkIno(inode.Ino); err != nil {
		return fmt.Errorf("updating inode `%d`: %w", inode.Ino, err)
	}
	buf, err := fs.cache.Read(fs.dev, fs.superblock.InodeBlock(inode.Ino))
	if err != nil {
		return fmt.Errorf("updating inode `%d`: %w", inode.Ino, err)
	}
	defer fs.cache.Release(buf)

	encode.EncodeInode(inode, inodeSlot(buf.Data(), &fs.superblock, inode.Ino))
	buf.MarkDirty()
	if err := fs.cache.Write(buf); err != nil {
		return fmt.Errorf("updating inode `%d`: %w", inode.Ino, err)
	}
	return nil
}

// readDir reads `ino` and requires it to be a directory.
func (fs *FileSystem) readDir(ino Ino) (Inode, error) {
	inode, err := fs.ReadInode(ino)
	if err != nil {
		return Inode{}, err
	}
	if inode.Type != FileTypeDir {
		return Inode{}, fmt.Errorf(
			"inode `%d` has type `%s`: %w",
			ino,
			inode.Type,
			NotADirErr,
		)
	}
	return inode, nil
}
