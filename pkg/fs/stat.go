package fs

import (
	"fmt"

	. "github.com/weberc2/xv6fs/pkg/types"
)

type Stat struct {
	Ino    Ino      `json:"ino"`
	Type   FileType `json:"type"`
	Major  int16    `json:"major"`
	Minor  int16    `json:"minor"`
	Nlink  int16    `json:"nlink"`
	Size   uint32   `json:"size"`
	Blocks []Block  `json:"blocks"`

	// Indirect is the indirect block address, which is reported but never
	// followed.
	Indirect Block `json:"indirect,omitempty"`
}

func (fs *FileSystem) Stat(path string) (Stat, error) {
	ino, err := fs.ResolvePath(path)
	if err != nil {
		return Stat{}, fmt.Errorf("stat `%s`: %w", path, err)
	}
	inode, err := fs.ReadInode(ino)
	if err != nil {
		return Stat{}, fmt.Errorf("stat `%s`: %w", path, err)
	}
	return Stat{
		Ino:      ino,
		Type:     inode.Type,
		Major:    inode.Major,
		Minor:    inode.Minor,
		Nlink:    inode.Nlink,
		Size:     inode.Size,
		Blocks:   append([]Block(nil), inode.DirectBlocks()...),
		Indirect: inode.Addrs[DirectBlocksCount],
	}, nil
}
