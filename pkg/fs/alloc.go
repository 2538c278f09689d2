package fs

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/alloc"
	"github.com/weberc2/xv6fs/pkg/encode"
	"github.com/weberc2/xv6fs/pkg/math"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// loadBitmap seeds the block allocator from the on-disk bitmap region. The
// boot block, superblock, log, inode and bitmap regions are always treated as
// in use, whatever the bitmap says.
func (fs *FileSystem) loadBitmap() error {
	sb := &fs.superblock
	data := make([]byte, 0, Byte(sb.BitmapBlocks())*BlockSize)
	for i := Block(0); i < sb.BitmapBlocks(); i++ {
		buf, err := fs.cache.Read(fs.dev, sb.BitmapStart+i)
		if err != nil {
			return fmt.Errorf("loading block bitmap: %w", err)
		}
		data = append(data, buf.Data()[:]...)
		fs.cache.Release(buf)
	}

	bm := alloc.Load(data, uint64(sb.Size))
	for b := Block(0); b < sb.FirstDataBlock(); b++ {
		bm.Reserve(uint64(b))
	}
	fs.bitmap = alloc.NewFlushable(bm, bitmapStore{fs})
	fs.blocks = alloc.BlockAllocator{Allocator: fs.bitmap}
	return nil
}

// scanInodes seeds the inode allocator. xv6 has no inode bitmap; an inode is
// in use iff its type is non-zero.
func (fs *FileSystem) scanInodes() error {
	sb := &fs.superblock
	fs.inos = alloc.NewInoAllocator(sb.Inodes)
	for i := Block(0); i < sb.InodeBlocks(); i++ {
		buf, err := fs.cache.Read(fs.dev, sb.InodeStart+i)
		if err != nil {
			return fmt.Errorf("scanning inodes: %w", err)
		}
		for slot := Ino(0); slot < InodesPerBlock; slot++ {
			ino := Ino(i)*InodesPerBlock + slot
			if ino >= sb.Inodes {
				break
			}
			var inode Inode
			encode.DecodeInode(&inode, inodeSlot(buf.Data(), sb, ino))
			if !inode.IsFree() {
				fs.inos.Reserve(ino)
			}
		}
		fs.cache.Release(buf)
	}
	return nil
}

// bitmapStore writes the block allocator's state back to the bitmap region
// through the buffer cache. Only bitmap blocks whose content changed are
// written.
type bitmapStore struct {
	fs *FileSystem
}

func (store bitmapStore) Put(bm *alloc.Bitmap) error {
	fs := store.fs
	data := bm.Bytes()
	for i := Block(0); i < fs.superblock.BitmapBlocks(); i++ {
		start := math.Min(Byte(i)*BlockSize, Byte(len(data)))
		end := math.Min(start+BlockSize, Byte(len(data)))
		chunk := data[start:end]

		b := fs.superblock.BitmapStart + i
		buf, err := fs.cache.Read(fs.dev, b)
		if err != nil {
			return fmt.Errorf("writing bitmap block `%d`: %w", b, err)
		}
		if bytes.Equal(buf.Data()[:len(chunk)], chunk) {
			fs.cache.Release(buf)
			continue
		}
		copy(buf.Data()[:], chunk)
		buf.MarkDirty()
		err = fs.cache.Write(buf)
		fs.cache.Release(buf)
		if err != nil {
			return fmt.Errorf("writing bitmap block `%d`: %w", b, err)
		}
	}
	return nil
}

// AllocateBlock claims the first free data block, records it in the on-disk
// bitmap and zeroes its content on disk.
func (fs *FileSystem) AllocateBlock() (Block, error) {
	if err := fs.checkWritable(); err != nil {
		return BlockNil, fmt.Errorf("allocating block: %w", err)
	}
	b, ok := fs.blocks.Alloc()
	if !ok {
		return BlockNil, fmt.Errorf("allocating block: %w", OutOfBlocksErr)
	}
	if err := fs.bitmap.Flush(); err != nil {
		fs.blocks.Free(b)
		return BlockNil, fmt.Errorf("allocating block `%d`: %w", b, err)
	}

	if err := fs.zeroBlock(b); err != nil {
		if freeErr := fs.freeBlock(b); freeErr != nil {
			fs.logger.WithError(freeErr).WithField("block", b).
				Warn("releasing block")
		}
		return BlockNil, fmt.Errorf("allocating block `%d`: %w", b, err)
	}

	fs.logger.WithField("block", b).Debug("allocated block")
	return b, nil
}

func (fs *FileSystem) zeroBlock(b Block) error {
	buf, err := fs.cache.Get(fs.dev, b)
	if err != nil {
		return err
	}
	defer fs.cache.Release(buf)
	*buf.Data() = [BlockSize]byte{}
	buf.MarkDirty()
	return fs.cache.Write(buf)
}

// freeBlock returns a block to the allocator and persists the bitmap.
func (fs *FileSystem) freeBlock(b Block) error {
	fs.blocks.Free(b)
	if err := fs.bitmap.Flush(); err != nil {
		return fmt.Errorf("freeing block `%d`: %w", b, err)
	}
	fs.logger.WithField("block", b).Debug("freed block")
	return nil
}

// AllocateInode claims the lowest free inode number and persists a fresh
// record of type `t` with a link count of one.
func (fs *FileSystem) AllocateInode(t FileType) (Ino, error) {
	if err := fs.checkWritable(); err != nil {
		return InoNil, fmt.Errorf("allocating inode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return InoNil, fmt.Errorf("allocating inode: %w", err)
	}
	if t == FileTypeFree {
		return InoNil, fmt.Errorf(
			"allocating inode of type `%s`: %w",
			t,
			InvalidFileTypeErr,
		)
	}
	ino, ok := fs.inos.Alloc()
	if !ok {
		return InoNil, fmt.Errorf("allocating inode: %w", OutOfInosErr)
	}
	inode := Inode{Ino: ino, Type: t, Nlink: 1}
	if err := fs.UpdateInode(&inode); err != nil {
		fs.inos.Free(ino)
		return InoNil, fmt.Errorf("allocating inode `%d`: %w", ino, err)
	}
	fs.logger.WithFields(logrus.Fields{
		"ino":  ino,
		"type": t,
	}).Debug("allocated inode")
	return ino, nil
}

// freeInode marks `ino` free on disk and returns it to the allocator.
func (fs *FileSystem) freeInode(ino Ino) error {
	if err := fs.UpdateInode(&Inode{Ino: ino}); err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ino, err)
	}
	fs.inos.Free(ino)
	fs.logger.WithField("ino", ino).Debug("freed inode")
	return nil
}

// Usage reports how many blocks and inodes are in use.
func (fs *FileSystem) Usage() (blocks uint64, inodes uint64) {
	blocks = fs.bitmap.Used()
	for ino := InoRoot; ino < fs.superblock.Inodes; ino++ {
		if fs.inos.IsSet(ino) {
			inodes++
		}
	}
	return
}
