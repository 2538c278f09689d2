package fs

import (
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/weberc2/xv6fs/pkg/encode"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// FileInfo describes one live directory entry.
type FileInfo struct {
	Name string   `json:"name"`
	Ino  Ino      `json:"ino"`
	Type FileType `json:"type"`
	Size uint32   `json:"size"`
}

func (info *FileInfo) writeTo(w io.Writer) error {
	_, err := fmt.Fprintf(
		w,
		"%-14s %d %d %d\n",
		info.Name,
		int16(info.Type),
		info.Ino,
		info.Size,
	)
	return err
}

// ReadDirectoryBlock returns the live entries of directory block `block` in
// slot order. Entries referring to free or out-of-range inodes are skipped.
func (fs *FileSystem) ReadDirectoryBlock(block Block) ([]FileInfo, error) {
	buf, err := fs.cache.Read(fs.dev, block)
	if err != nil {
		return nil, fmt.Errorf("reading directory block `%d`: %w", block, err)
	}
	var entries []DirEntry
	for i := 0; i < DirEntriesPerBlock; i++ {
		var entry DirEntry
		encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), i))
		if entry.Ino != InoNil {
			entries = append(entries, entry)
		}
	}
	// listing holds at most one buffer at a time
	fs.cache.Release(buf)

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		inode, err := fs.ReadInode(entry.Ino)
		if err != nil {
			if errors.Is(err, FreeInodeErr) ||
				errors.Is(err, InoOutOfRangeErr) {
				continue
			}
			return nil, fmt.Errorf(
				"reading directory block `%d`: %w",
				block,
				err,
			)
		}
		infos = append(infos, FileInfo{
			Name: entry.Name,
			Ino:  entry.Ino,
			Type: inode.Type,
			Size: inode.Size,
		})
	}
	return infos, nil
}

// ListDirectory writes one `name type ino size` line per live entry of
// directory block `block`.
func (fs *FileSystem) ListDirectory(w io.Writer, block Block) error {
	infos, err := fs.ReadDirectoryBlock(block)
	if err != nil {
		return fmt.Errorf("listing directory block `%d`: %w", block, err)
	}
	for i := range infos {
		if err := infos[i].writeTo(w); err != nil {
			return fmt.Errorf("listing directory block `%d`: %w", block, err)
		}
	}
	return nil
}

// ReadDir returns the live entries across every direct block of directory
// `dir`.
func (fs *FileSystem) ReadDir(dir Ino) ([]FileInfo, error) {
	inode, err := fs.readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory `%d`: %w", dir, err)
	}
	var infos []FileInfo
	for _, block := range inode.DirectBlocks() {
		blockInfos, err := fs.ReadDirectoryBlock(block)
		if err != nil {
			return nil, fmt.Errorf("reading directory `%d`: %w", dir, err)
		}
		infos = append(infos, blockInfos...)
	}
	return infos, nil
}

// ListPath lists the directory at `p`, or the single entry for `p` if it
// isn't a directory.
func (fs *FileSystem) ListPath(w io.Writer, p string) error {
	ino, err := fs.ResolvePath(p)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", p, err)
	}
	inode, err := fs.ReadInode(ino)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", p, err)
	}
	if inode.Type != FileTypeDir {
		return listEntry(w, p, &inode)
	}
	for _, block := range inode.DirectBlocks() {
		if err := fs.ListDirectory(w, block); err != nil {
			return fmt.Errorf("listing `%s`: %w", p, err)
		}
	}
	return nil
}

// ListEntry writes the single entry for `p`, even if it is a directory.
func (fs *FileSystem) ListEntry(w io.Writer, p string) error {
	ino, err := fs.ResolvePath(p)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", p, err)
	}
	inode, err := fs.ReadInode(ino)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", p, err)
	}
	return listEntry(w, p, &inode)
}

func listEntry(w io.Writer, p string, inode *Inode) error {
	info := FileInfo{
		Name: path.Base(p),
		Ino:  inode.Ino,
		Type: inode.Type,
		Size: inode.Size,
	}
	if err := info.writeTo(w); err != nil {
		return fmt.Errorf("listing `%s`: %w", p, err)
	}
	return nil
}

// ListTree lists the directory at `p` and, recursively, every directory
// beneath it, each under a `path:` heading.
func (fs *FileSystem) ListTree(w io.Writer, p string) error {
	ino, err := fs.ResolvePath(p)
	if err != nil {
		return fmt.Errorf("listing tree `%s`: %w", p, err)
	}
	if err := fs.listTree(w, path.Clean(p), ino, map[Ino]struct{}{}); err != nil {
		return fmt.Errorf("listing tree `%s`: %w", p, err)
	}
	return nil
}

func (fs *FileSystem) listTree(
	w io.Writer,
	p string,
	dir Ino,
	visited map[Ino]struct{},
) error {
	if _, found := visited[dir]; found {
		return nil
	}
	visited[dir] = struct{}{}

	infos, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s:\n", p); err != nil {
		return err
	}
	for i := range infos {
		if err := infos[i].writeTo(w); err != nil {
			return err
		}
	}
	for _, info := range infos {
		if info.Type != FileTypeDir ||
			info.Name == selfName ||
			info.Name == parentName {
			continue
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := fs.listTree(
			w,
			path.Join(p, info.Name),
			info.Ino,
			visited,
		); err != nil {
			return err
		}
	}
	return nil
}
