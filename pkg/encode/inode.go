package encode

import (
	. "github.com/weberc2/xv6fs/pkg/types"
)

func EncodeInode(inode *Inode, b *[InodeSize]byte) {
	p := b[:]
	putU16(p, inodeTypeStart, uint16(inode.Type))
	putU16(p, inodeMajorStart, uint16(inode.Major))
	putU16(p, inodeMinorStart, uint16(inode.Minor))
	putU16(p, inodeNlinkStart, uint16(inode.Nlink))
	putU32(p, inodeSizeStart, inode.Size)
	for i := range inode.Addrs {
		putBlock(p, inodeAddrsStart+Byte(i)*BlockPointerSize, inode.Addrs[i])
	}
}

// DecodeInode populates `inode` from `b`. The ino isn't part of the encoded
// record so `inode.Ino` is left alone. The file type is NOT validated here:
// a zeroed record is a perfectly valid free inode and callers decide what to
// do with it.
func DecodeInode(inode *Inode, b *[InodeSize]byte) {
	p := b[:]
	inode.Type = FileType(getU16(p, inodeTypeStart))
	inode.Major = int16(getU16(p, inodeMajorStart))
	inode.Minor = int16(getU16(p, inodeMinorStart))
	inode.Nlink = int16(getU16(p, inodeNlinkStart))
	inode.Size = getU32(p, inodeSizeStart)
	for i := range inode.Addrs {
		inode.Addrs[i] = getBlock(p, inodeAddrsStart+Byte(i)*BlockPointerSize)
	}
}

const (
	inodeTypeStart = 0
	inodeTypeSize  = 2
	inodeTypeEnd   = inodeTypeStart + inodeTypeSize

	inodeMajorStart = inodeTypeEnd
	inodeMajorSize  = 2
	inodeMajorEnd   = inodeMajorStart + inodeMajorSize

	inodeMinorStart = inodeMajorEnd
	inodeMinorSize  = 2
	inodeMinorEnd   = inodeMinorStart + inodeMinorSize

	inodeNlinkStart = inodeMinorEnd
	inodeNlinkSize  = 2
	inodeNlinkEnd   = inodeNlinkStart + inodeNlinkSize

	inodeSizeStart = inodeNlinkEnd
	inodeSizeSize  = 4
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeAddrsStart Byte = inodeSizeEnd
	inodeAddrsSize       = AddrsCount * BlockPointerSize
	inodeAddrsEnd        = inodeAddrsStart + inodeAddrsSize
)
