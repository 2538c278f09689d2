package encode

import (
	"bytes"

	. "github.com/weberc2/xv6fs/pkg/types"
)

// EncodeDirEntry writes `entry` into `b`. Names longer than `DirNameSize`
// are truncated; shorter names are NUL-padded.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	putU16(p, dirEntryInoStart, uint16(entry.Ino))
	name := p[dirEntryNameStart:dirEntryNameEnd]
	n := copy(name, TruncateName(entry.Name))
	for i := n; i < len(name); i++ {
		name[i] = 0
	}
}

// DecodeDirEntry reads the entry in `b`. The name field is not necessarily
// NUL-terminated; it ends at the first NUL or at `DirNameSize` bytes.
func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	entry.Ino = Ino(getU16(p, dirEntryInoStart))
	name := p[dirEntryNameStart:dirEntryNameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	entry.Name = string(name)
}

// DirEntryAt returns the `i`th directory entry slot of a directory block.
func DirEntryAt(block *[BlockSize]byte, i int) *[DirEntrySize]byte {
	start := Byte(i) * DirEntrySize
	return (*[DirEntrySize]byte)(block[start : start+DirEntrySize])
}

// ZeroDirEntry clears a directory slot entirely, name included.
func ZeroDirEntry(b *[DirEntrySize]byte) {
	*b = [DirEntrySize]byte{}
}

const (
	dirEntryInoStart Byte = 0
	dirEntryInoSize  Byte = 2
	dirEntryInoEnd        = dirEntryInoStart + dirEntryInoSize

	dirEntryNameStart = dirEntryInoEnd
	dirEntryNameSize  = Byte(DirNameSize)
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize
)
