package types

import (
	"fmt"
)

type Ino uint32

const (
	DirectBlocksCount = 12

	// AddrsCount is the number of block address slots in an inode: the
	// direct blocks followed by a single indirect block.
	AddrsCount = DirectBlocksCount + 1

	InodeSize      Byte = 64
	InodesPerBlock Ino  = Ino(BlockSize / InodeSize)

	InoNil  Ino = 0
	InoRoot Ino = 1

	// MaxFileSize is the largest file which can be addressed through the
	// direct blocks alone.
	MaxFileSize Byte = DirectBlocksCount * BlockSize
)

type Inode struct {
	Ino   Ino               `json:"ino"`
	Type  FileType          `json:"type"`
	Major int16             `json:"major"`
	Minor int16             `json:"minor"`
	Nlink int16             `json:"nlink"`
	Size  uint32            `json:"size"`
	Addrs [AddrsCount]Block `json:"addrs"`
}

// IsFree reports whether the inode's slot is unallocated; none of the other
// fields are meaningful for a free inode.
func (inode *Inode) IsFree() bool { return inode.Type == FileTypeFree }

// DirectBlocks returns the in-use prefix of the direct block slots (up to the
// first zero slot).
func (inode *Inode) DirectBlocks() []Block {
	for i := 0; i < DirectBlocksCount; i++ {
		if inode.Addrs[i] == BlockNil {
			return inode.Addrs[:i]
		}
	}
	return inode.Addrs[:DirectBlocksCount]
}

type FileType int16

const (
	FileTypeFree FileType = iota
	FileTypeDir
	FileTypeRegular
	FileTypeDevice
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeFree:
		return "Free"
	case FileTypeDir:
		return "Dir"
	case FileTypeRegular:
		return "Regular"
	case FileTypeDevice:
		return "Device"
	default:
		return fmt.Sprintf("FileType(%d)", int16(ft))
	}
}

func (ft FileType) MarshalJSON() ([]byte, error) {
	s := ft.String()
	out := make([]byte, len(s)+2)
	out[0] = '"'
	out[len(out)-1] = '"'
	copy(out[1:], s)
	return out, nil
}

func (ft FileType) Validate() error {
	if ft < FileTypeFree || ft > FileTypeDevice {
		return fmt.Errorf(
			"validating file type `%d`: %w",
			ft,
			InvalidFileTypeErr,
		)
	}
	return nil
}

const (
	InvalidFileTypeErr ConstError = "invalid file type"
)
