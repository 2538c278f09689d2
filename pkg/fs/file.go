package fs

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/math"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// WriteFile replaces the content of the regular file at `path` with `data`,
// creating the file if it doesn't exist. Only direct blocks are used, so
// `data` may be at most `MaxFileSize` bytes. Blocks the file no longer needs
// are returned to the allocator.
func (fs *FileSystem) WriteFile(path string, data []byte) (Ino, error) {
	if err := fs.checkWritable(); err != nil {
		return InoNil, fmt.Errorf("writing file `%s`: %w", path, err)
	}
	if Byte(len(data)) > MaxFileSize {
		return InoNil, fmt.Errorf(
			"writing file `%s`: `%d` bytes exceeds `%d`: %w",
			path,
			len(data),
			MaxFileSize,
			FileTooLargeErr,
		)
	}

	inode, err := fs.openOrCreate(path)
	if err != nil {
		return InoNil, fmt.Errorf("writing file `%s`: %w", path, err)
	}

	blocks := int(math.DivRoundUp(Byte(len(data)), BlockSize))
	for i := 0; i < DirectBlocksCount; i++ {
		if i >= blocks {
			if b := inode.Addrs[i]; b != BlockNil {
				if err := fs.freeBlock(b); err != nil {
					return InoNil, fmt.Errorf(
						"writing file `%s`: %w",
						path,
						err,
					)
				}
				inode.Addrs[i] = BlockNil
			}
			continue
		}
		if inode.Addrs[i] == BlockNil {
			b, err := fs.AllocateBlock()
			if err != nil {
				return InoNil, fmt.Errorf("writing file `%s`: %w", path, err)
			}
			inode.Addrs[i] = b
		}
		start := Byte(i) * BlockSize
		end := math.Min(start+BlockSize, Byte(len(data)))
		if err := fs.writeBlock(inode.Addrs[i], data[start:end]); err != nil {
			return InoNil, fmt.Errorf("writing file `%s`: %w", path, err)
		}
	}

	inode.Size = uint32(len(data))
	if err := fs.UpdateInode(&inode); err != nil {
		return InoNil, fmt.Errorf("writing file `%s`: %w", path, err)
	}
	fs.logger.WithFields(logrus.Fields{
		"path":   path,
		"ino":    inode.Ino,
		"size":   inode.Size,
		"blocks": blocks,
	}).Debug("wrote file")
	return inode.Ino, nil
}

func (fs *FileSystem) openOrCreate(path string) (Inode, error) {
	ino, err := fs.ResolvePath(path)
	if errors.Is(err, NotFoundErr) {
		dir, name, err := fs.resolveParent(path)
		if err != nil {
			return Inode{}, err
		}
		if ino, err = fs.Create(dir.Ino, name); err != nil {
			return Inode{}, err
		}
	} else if err != nil {
		return Inode{}, err
	}

	inode, err := fs.ReadInode(ino)
	if err != nil {
		return Inode{}, err
	}
	if inode.Type != FileTypeRegular {
		return Inode{}, fmt.Errorf(
			"inode `%d` has type `%s`: %w",
			ino,
			inode.Type,
			NotARegularFileErr,
		)
	}
	if inode.Addrs[DirectBlocksCount] != BlockNil {
		return Inode{}, fmt.Errorf(
			"inode `%d` uses an indirect block: %w",
			ino,
			FileTooLargeErr,
		)
	}
	return inode, nil
}

// writeBlock overwrites block `b` with `data`, zero-filling the remainder.
func (fs *FileSystem) writeBlock(b Block, data []byte) error {
	buf, err := fs.cache.Get(fs.dev, b)
	if err != nil {
		return err
	}
	defer fs.cache.Release(buf)

	n := copy(buf.Data()[:], data)
	for i := n; i < len(buf.Data()); i++ {
		buf.Data()[i] = 0
	}
	buf.MarkDirty()
	return fs.cache.Write(buf)
}

// ReadFile returns the content of the regular file at `path`. Files which
// extend beyond the direct blocks are rejected with `FileTooLargeErr`.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	ino, err := fs.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("reading file `%s`: %w", path, err)
	}
	inode, err := fs.ReadInode(ino)
	if err != nil {
		return nil, fmt.Errorf("reading file `%s`: %w", path, err)
	}
	if inode.Type != FileTypeRegular {
		return nil, fmt.Errorf(
			"reading file `%s`: inode `%d` has type `%s`: %w",
			path,
			ino,
			inode.Type,
			NotARegularFileErr,
		)
	}
	if Byte(inode.Size) > MaxFileSize {
		return nil, fmt.Errorf(
			"reading file `%s`: `%d` bytes: %w",
			path,
			inode.Size,
			FileTooLargeErr,
		)
	}

	data := make([]byte, 0, inode.Size)
	for i := 0; Byte(len(data)) < Byte(inode.Size); i++ {
		b := inode.Addrs[i]
		remaining := Byte(inode.Size) - Byte(len(data))
		n := math.Min(remaining, BlockSize)
		if b == BlockNil {
			// unallocated blocks read as zeroes
			data = append(data, make([]byte, n)...)
			continue
		}
		buf, err := fs.cache.Read(fs.dev, b)
		if err != nil {
			return nil, fmt.Errorf("reading file `%s`: %w", path, err)
		}
		data = append(data, buf.Data()[:n]...)
		fs.cache.Release(buf)
	}
	return data, nil
}
