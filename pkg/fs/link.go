package fs

import (
	"fmt"

	"github.com/sirupsen/logrus"

	. "github.com/weberc2/xv6fs/pkg/types"
)

// Unlink clears the directory entry named by `path`. Only the entry is
// removed: the target's inode, data blocks and link count are left as they
// are.
func (fs *FileSystem) Unlink(path string) error {
	if err := fs.checkWritable(); err != nil {
		return fmt.Errorf("unlinking `%s`: %w", path, err)
	}
	dir, name, err := fs.resolveParent(path)
	if err != nil {
		return fmt.Errorf("unlinking `%s`: %w", path, err)
	}
	if name == selfName || name == parentName {
		return fmt.Errorf("unlinking `%s`: %w", path, InvalidNameErr)
	}
	slot, entry, err := fs.findEntry(&dir, name)
	if err != nil {
		return fmt.Errorf("unlinking `%s`: %w", path, err)
	}
	target, err := fs.readInodeRecord(entry.Ino)
	if err != nil {
		return fmt.Errorf("unlinking `%s`: %w", path, err)
	}
	if target.Type != FileTypeRegular && target.Type != FileTypeDir {
		return fmt.Errorf(
			"unlinking `%s`: inode `%d` has type `%s`: %w",
			path,
			target.Ino,
			target.Type,
			NotAFileOrDirErr,
		)
	}
	if err := fs.writeEntry(slot, nil); err != nil {
		return fmt.Errorf("unlinking `%s`: %w", path, err)
	}
	fs.logger.WithFields(logrus.Fields{
		"path": path,
		"ino":  entry.Ino,
	}).Debug("unlinked")
	return nil
}

// Link points the existing regular file entry `newPath` at the inode of the
// regular file `oldPath`, so both names refer to the same file. The
// destination name must already exist (see `Create`).
func (fs *FileSystem) Link(oldPath, newPath string) error {
	if err := fs.checkWritable(); err != nil {
		return fmt.Errorf("linking `%s` to `%s`: %w", newPath, oldPath, err)
	}
	_, source, err := fs.regularFileEntry(oldPath)
	if err != nil {
		return fmt.Errorf("linking `%s` to `%s`: %w", newPath, oldPath, err)
	}
	slot, dest, err := fs.regularFileEntry(newPath)
	if err != nil {
		return fmt.Errorf("linking `%s` to `%s`: %w", newPath, oldPath, err)
	}
	if err := fs.writeEntry(
		slot,
		&DirEntry{Ino: source.Ino, Name: dest.Name},
	); err != nil {
		return fmt.Errorf("linking `%s` to `%s`: %w", newPath, oldPath, err)
	}
	fs.logger.WithFields(logrus.Fields{
		"source":   oldPath,
		"dest":     newPath,
		"ino":      source.Ino,
		"replaced": dest.Ino,
	}).Debug("linked")
	return nil
}

// regularFileEntry finds the directory entry for `path` and requires it to
// refer to a regular file.
func (fs *FileSystem) regularFileEntry(path string) (dirSlot, DirEntry, error) {
	dir, name, err := fs.resolveParent(path)
	if err != nil {
		return dirSlot{}, DirEntry{}, err
	}
	slot, entry, err := fs.findEntry(&dir, name)
	if err != nil {
		return dirSlot{}, DirEntry{}, err
	}
	inode, err := fs.readInodeRecord(entry.Ino)
	if err != nil {
		return dirSlot{}, DirEntry{}, err
	}
	if inode.Type != FileTypeRegular {
		return dirSlot{}, DirEntry{}, fmt.Errorf(
			"`%s` has type `%s`: %w",
			path,
			inode.Type,
			NotARegularFileErr,
		)
	}
	return slot, entry, nil
}
