package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/encode"
	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	selfName   = "."
	parentName = ".."
)

// dirSlot locates one directory entry: the `index`th entry of the directory's
// `pos`th direct block.
type dirSlot struct {
	pos   int
	block Block
	index int
}

// end is the directory size needed to include the slot.
func (slot dirSlot) end() uint32 {
	return uint32(
		(Byte(slot.pos)*Byte(DirEntriesPerBlock) + Byte(slot.index) + 1) *
			DirEntrySize,
	)
}

func validateName(name string) error {
	if name == "" || strings.Contains(name, separator) {
		return fmt.Errorf("validating name `%s`: %w", name, InvalidNameErr)
	}
	return nil
}

// findEntry locates the live entry named `name` in directory `dir`.
func (fs *FileSystem) findEntry(
	dir *Inode,
	name string,
) (dirSlot, DirEntry, error) {
	name = TruncateName(name)
	for pos, block := range dir.DirectBlocks() {
		buf, err := fs.cache.Read(fs.dev, block)
		if err != nil {
			return dirSlot{}, DirEntry{}, err
		}
		for i := 0; i < DirEntriesPerBlock; i++ {
			var entry DirEntry
			encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), i))
			if entry.Ino != InoNil && entry.Name == name {
				fs.cache.Release(buf)
				return dirSlot{pos: pos, block: block, index: i}, entry, nil
			}
		}
		fs.cache.Release(buf)
	}
	return dirSlot{}, DirEntry{}, fmt.Errorf(
		"finding `%s` in directory `%d`: %w",
		name,
		dir.Ino,
		NotFoundErr,
	)
}

// findFreeSlot returns the first empty entry across the direct blocks of
// directory `dir`. Directories never grow and there is no indirect block
// fallback.
func (fs *FileSystem) findFreeSlot(dir *Inode) (dirSlot, error) {
	for pos, block := range dir.DirectBlocks() {
		buf, err := fs.cache.Read(fs.dev, block)
		if err != nil {
			return dirSlot{}, err
		}
		for i := 0; i < DirEntriesPerBlock; i++ {
			var entry DirEntry
			encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), i))
			if entry.Ino == InoNil {
				fs.cache.Release(buf)
				return dirSlot{pos: pos, block: block, index: i}, nil
			}
		}
		fs.cache.Release(buf)
	}
	return dirSlot{}, fmt.Errorf(
		"finding free entry in directory `%d`: %w",
		dir.Ino,
		NoFreeEntryErr,
	)
}

// writeEntry stores `entry` in `slot` and writes the block through. A nil
// entry clears the slot, name included.
func (fs *FileSystem) writeEntry(slot dirSlot, entry *DirEntry) error {
	buf, err := fs.cache.Read(fs.dev, slot.block)
	if err != nil {
		return err
	}
	defer fs.cache.Release(buf)

	raw := encode.DirEntryAt(buf.Data(), slot.index)
	if entry == nil {
		encode.ZeroDirEntry(raw)
	} else {
		encode.EncodeDirEntry(entry, raw)
	}
	buf.MarkDirty()
	return fs.cache.Write(buf)
}

// coverSlot grows `dir.Size` to include `slot`.
func coverSlot(dir *Inode, slot dirSlot) {
	if end := slot.end(); end > dir.Size {
		dir.Size = end
	}
}

// Create adds an empty regular file named `name` to directory `parent` and
// returns its inode number.
func (fs *FileSystem) Create(parent Ino, name string) (Ino, error) {
	if err := fs.checkWritable(); err != nil {
		return InoNil, fmt.Errorf("creating `%s`: %w", name, err)
	}
	if err := validateName(name); err != nil {
		return InoNil, fmt.Errorf("creating `%s`: %w", name, err)
	}
	dir, err := fs.readDir(parent)
	if err != nil {
		return InoNil, fmt.Errorf(
			"creating `%s` in directory `%d`: %w",
			name,
			parent,
			err,
		)
	}
	ino, err := fs.create(&dir, name)
	if err != nil {
		return InoNil, fmt.Errorf(
			"creating `%s` in directory `%d`: %w",
			name,
			parent,
			err,
		)
	}
	fs.logger.WithFields(logrus.Fields{
		"dir":  parent,
		"name": name,
		"ino":  ino,
	}).Debug("created file")
	return ino, nil
}

func (fs *FileSystem) create(dir *Inode, name string) (Ino, error) {
	slot, err := fs.slotFor(dir, name)
	if err != nil {
		return InoNil, err
	}
	ino, err := fs.AllocateInode(FileTypeRegular)
	if err != nil {
		return InoNil, err
	}
	if err := fs.writeEntry(slot, &DirEntry{Ino: ino, Name: name}); err != nil {
		return InoNil, err
	}
	coverSlot(dir, slot)
	if err := fs.UpdateInode(dir); err != nil {
		return InoNil, err
	}
	return ino, nil
}

// slotFor requires that `dir` has no entry called `name` and returns the slot
// a new entry should go in.
func (fs *FileSystem) slotFor(dir *Inode, name string) (dirSlot, error) {
	if _, _, err := fs.findEntry(dir, name); err == nil {
		return dirSlot{}, fmt.Errorf("adding `%s`: %w", name, ExistsErr)
	} else if !errors.Is(err, NotFoundErr) {
		return dirSlot{}, fmt.Errorf("adding `%s`: %w", name, err)
	}
	return fs.findFreeSlot(dir)
}

// MakeDirectory creates the directory named by the absolute `path` holding
// only its `.` and `..` entries, and returns its inode number.
func (fs *FileSystem) MakeDirectory(path string) (Ino, error) {
	if err := fs.checkWritable(); err != nil {
		return InoNil, fmt.Errorf("making directory `%s`: %w", path, err)
	}
	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return InoNil, fmt.Errorf("making directory `%s`: %w", path, err)
	}
	if err := validateName(name); err != nil {
		return InoNil, fmt.Errorf("making directory `%s`: %w", path, err)
	}
	ino, err := fs.makeDirectory(&parent, name)
	if err != nil {
		return InoNil, fmt.Errorf("making directory `%s`: %w", path, err)
	}
	fs.logger.WithFields(logrus.Fields{
		"path": path,
		"ino":  ino,
	}).Debug("made directory")
	return ino, nil
}

func (fs *FileSystem) makeDirectory(parent *Inode, name string) (Ino, error) {
	slot, err := fs.slotFor(parent, name)
	if err != nil {
		return InoNil, err
	}
	block, err := fs.AllocateBlock()
	if err != nil {
		return InoNil, err
	}
	ino, err := fs.AllocateInode(FileTypeDir)
	if err != nil {
		fs.releaseDirectory(InoNil, block)
		return InoNil, err
	}

	if err := fs.initDirectory(ino, parent.Ino, block); err != nil {
		fs.releaseDirectory(ino, block)
		return InoNil, err
	}

	if err := fs.writeEntry(slot, &DirEntry{Ino: ino, Name: name}); err != nil {
		fs.clearEntry(slot)
		fs.releaseDirectory(ino, block)
		return InoNil, err
	}
	size, nlink := parent.Size, parent.Nlink
	coverSlot(parent, slot)
	// the new directory's `..` refers to the parent
	parent.Nlink++
	if err := fs.UpdateInode(parent); err != nil {
		parent.Size, parent.Nlink = size, nlink
		if err := fs.UpdateInode(parent); err != nil {
			fs.logger.WithError(err).WithField("ino", parent.Ino).
				Warn("restoring parent directory inode")
		}
		fs.clearEntry(slot)
		fs.releaseDirectory(ino, block)
		return InoNil, err
	}
	return ino, nil
}

// initDirectory writes the `.` and `..` entries into `block` and the inode
// record of the new directory `ino`.
func (fs *FileSystem) initDirectory(ino, parent Ino, block Block) error {
	if err := fs.writeEntry(
		dirSlot{block: block, index: 0},
		&DirEntry{Ino: ino, Name: selfName},
	); err != nil {
		return err
	}
	if err := fs.writeEntry(
		dirSlot{block: block, index: 1},
		&DirEntry{Ino: parent, Name: parentName},
	); err != nil {
		return err
	}
	inode := Inode{
		Ino:   ino,
		Type:  FileTypeDir,
		Nlink: 2,
		Size:  uint32(2 * DirEntrySize),
	}
	inode.Addrs[0] = block
	return fs.UpdateInode(&inode)
}

// clearEntry empties `slot` after a failed insertion. The cached block is
// cleared even if the device write fails again.
func (fs *FileSystem) clearEntry(slot dirSlot) {
	if err := fs.writeEntry(slot, nil); err != nil {
		fs.logger.WithError(err).WithField("block", slot.block).
			Warn("clearing directory entry")
	}
}

// releaseDirectory returns the inode (if any) and block claimed by a
// directory whose creation failed.
func (fs *FileSystem) releaseDirectory(ino Ino, block Block) {
	if ino != InoNil {
		if err := fs.freeInode(ino); err != nil {
			fs.logger.WithError(err).WithField("ino", ino).
				Warn("releasing directory inode")
		}
	}
	if err := fs.freeBlock(block); err != nil {
		fs.logger.WithError(err).WithField("block", block).
			Warn("releasing directory block")
	}
}
