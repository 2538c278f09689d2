package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/weberc2/xv6fs/pkg/bcache"
	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
	. "github.com/weberc2/xv6fs/pkg/types"
)

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}

type cacheInfo struct {
	Capacity int `json:"capacity"`
	bcache.Stats
}

type info struct {
	Superblock Superblock `json:"superblock"`
	UsedBlocks uint64     `json:"usedBlocks"`
	UsedInodes uint64     `json:"usedInodes"`
	Cache      cacheInfo  `json:"cache"`
}

func printInfo(w io.Writer, fsys *xv6fs.FileSystem) error {
	i := info{
		Superblock: fsys.Superblock(),
		Cache: cacheInfo{
			Capacity: fsys.Cache().Capacity(),
			Stats:    fsys.Cache().Stats(),
		},
	}
	i.UsedBlocks, i.UsedInodes = fsys.Usage()
	return printJSON(w, &i)
}

// createFile creates an empty regular file at the absolute path `p`.
func createFile(fsys *xv6fs.FileSystem, p string) (Ino, error) {
	parent, err := fsys.ResolvePath(path.Dir(p))
	if err != nil {
		return InoNil, fmt.Errorf("creating `%s`: %w", p, err)
	}
	return fsys.Create(parent, path.Base(p))
}

func catFile(w io.Writer, fsys *xv6fs.FileSystem, p string) error {
	data, err := fsys.ReadFile(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing `%s`: %w", p, err)
	}
	return nil
}

// imageName derives a valid image file name from a host file name: the stem
// is slugified and the result shortened to fit a directory entry, keeping
// the extension where possible.
func imageName(hostPath string) string {
	base := filepath.Base(hostPath)
	rawExt := filepath.Ext(base)
	ext := strings.ToLower(rawExt)
	stem := slug.Make(strings.TrimSuffix(base, rawExt))
	if stem == "" {
		stem = "file"
	}
	name := stem + ext
	if len(name) > DirNameSize {
		if len(ext) < DirNameSize {
			return stem[:DirNameSize-len(ext)] + ext
		}
		return name[:DirNameSize]
	}
	return name
}

// upload copies the image file at the absolute `imagePath` out to the host
// file `hostPath`, which defaults to the image file's base name. It returns
// the host path written.
func upload(fsys *xv6fs.FileSystem, imagePath, hostPath string) (string, error) {
	data, err := fsys.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("uploading `%s`: %w", imagePath, err)
	}
	if hostPath == "" {
		hostPath = path.Base(imagePath)
	}
	if err := os.WriteFile(hostPath, data, 0644); err != nil {
		return "", fmt.Errorf("uploading `%s`: %w", imagePath, err)
	}
	return hostPath, nil
}

// uploadTree writes the recursive listing of the whole image to the host
// file `hostPath`.
func uploadTree(fsys *xv6fs.FileSystem, hostPath string) (err error) {
	file, err := os.Create(hostPath)
	if err != nil {
		return fmt.Errorf("uploading tree to `%s`: %w", hostPath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("uploading tree to `%s`: %w", hostPath, closeErr)
		}
	}()

	w := bufio.NewWriter(file)
	if err := fsys.ListTree(w, "/"); err != nil {
		return fmt.Errorf("uploading tree to `%s`: %w", hostPath, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("uploading tree to `%s`: %w", hostPath, err)
	}
	return nil
}

// download copies the host file at `hostPath` into the image at the absolute
// `imagePath`. An `imagePath` naming a directory receives the file under a
// name derived from the host file name.
func download(
	fsys *xv6fs.FileSystem,
	hostPath string,
	imagePath string,
) (string, Ino, error) {
	if ino, err := fsys.ResolvePath(imagePath); err == nil {
		if inode, err := fsys.ReadInode(ino); err == nil &&
			inode.Type == FileTypeDir {
			imagePath = path.Join(imagePath, imageName(hostPath))
		}
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return "", InoNil, fmt.Errorf("downloading `%s`: %w", hostPath, err)
	}
	ino, err := fsys.WriteFile(imagePath, data)
	if err != nil {
		return "", InoNil, fmt.Errorf("downloading `%s`: %w", hostPath, err)
	}
	return imagePath, ino, nil
}
