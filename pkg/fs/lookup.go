package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weberc2/xv6fs/pkg/encode"
	. "github.com/weberc2/xv6fs/pkg/types"
)

const separator = "/"

// LookupInDirectoryBlock scans the 64 entries of directory block `block` for
// `name`, compared over at most `DirNameSize` bytes. Empty slots never match.
func (fs *FileSystem) LookupInDirectoryBlock(
	block Block,
	name string,
) (Ino, error) {
	buf, err := fs.cache.Read(fs.dev, block)
	if err != nil {
		return InoNil, fmt.Errorf(
			"looking up `%s` in block `%d`: %w",
			name,
			block,
			err,
		)
	}
	defer fs.cache.Release(buf)

	name = TruncateName(name)
	for i := 0; i < DirEntriesPerBlock; i++ {
		var entry DirEntry
		encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), i))
		if entry.Ino != InoNil && entry.Name == name {
			return entry.Ino, nil
		}
	}
	return InoNil, fmt.Errorf(
		"looking up `%s` in block `%d`: %w",
		name,
		block,
		NotFoundErr,
	)
}

// LookupInDirectory searches the direct blocks of directory `dir` in order
// for `name`, stopping at the first unused block slot.
func (fs *FileSystem) LookupInDirectory(dir Ino, name string) (Ino, error) {
	inode, err := fs.readDir(dir)
	if err != nil {
		return InoNil, fmt.Errorf(
			"looking up `%s` in directory `%d`: %w",
			name,
			dir,
			err,
		)
	}
	for _, block := range inode.DirectBlocks() {
		ino, err := fs.LookupInDirectoryBlock(block, name)
		if err == nil {
			return ino, nil
		}
		if !errors.Is(err, NotFoundErr) {
			return InoNil, fmt.Errorf(
				"looking up `%s` in directory `%d`: %w",
				name,
				dir,
				err,
			)
		}
	}
	return InoNil, fmt.Errorf(
		"looking up `%s` in directory `%d`: %w",
		name,
		dir,
		NotFoundErr,
	)
}

// ResolvePath walks an absolute path from the root directory. Empty
// components are ignored, so `/`, `//` and the empty remainder all name the
// root.
func (fs *FileSystem) ResolvePath(path string) (Ino, error) {
	if !strings.HasPrefix(path, separator) {
		return InoNil, fmt.Errorf(
			"resolving path `%s`: %w",
			path,
			NotAbsolutePathErr,
		)
	}
	ino, err := fs.Lookup(InoRoot, path)
	if err != nil {
		return InoNil, fmt.Errorf("resolving path `%s`: %w", path, err)
	}
	return ino, nil
}

// Lookup resolves `path` relative to directory `dir`; an absolute path starts
// from the root instead.
func (fs *FileSystem) Lookup(dir Ino, path string) (Ino, error) {
	if strings.HasPrefix(path, separator) {
		dir = InoRoot
	}
	for _, component := range strings.Split(path, separator) {
		if component == "" {
			continue
		}
		ino, err := fs.LookupInDirectory(dir, component)
		if err != nil {
			return InoNil, err
		}
		dir = ino
	}
	return dir, nil
}

// splitPath breaks an absolute path into its parent directory's path and its
// final component. Trailing separators are ignored.
func splitPath(path string) (string, string, error) {
	if !strings.HasPrefix(path, separator) {
		return "", "", fmt.Errorf(
			"splitting path `%s`: %w",
			path,
			NotAbsolutePathErr,
		)
	}
	trimmed := strings.TrimRight(path, separator)
	if trimmed == "" {
		return "", "", fmt.Errorf(
			"splitting path `%s`: root has no parent: %w",
			path,
			InvalidNameErr,
		)
	}
	i := strings.LastIndex(trimmed, separator)
	parent, leaf := trimmed[:i], trimmed[i+1:]
	if parent == "" {
		parent = separator
	}
	return parent, leaf, nil
}

// resolveParent resolves the parent directory of `path` and returns it along
// with the final path component.
func (fs *FileSystem) resolveParent(path string) (Inode, string, error) {
	parentPath, leaf, err := splitPath(path)
	if err != nil {
		return Inode{}, "", err
	}
	parent, err := fs.ResolvePath(parentPath)
	if err != nil {
		return Inode{}, "", err
	}
	dir, err := fs.readDir(parent)
	if err != nil {
		return Inode{}, "", err
	}
	return dir, leaf, nil
}
