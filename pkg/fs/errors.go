package fs

import (
	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	FreeInodeErr       ConstError = "inode is free"
	InoOutOfRangeErr   ConstError = "inode number out of range"
	NotFoundErr        ConstError = "not found"
	NotADirErr         ConstError = "not a directory"
	NotAbsolutePathErr ConstError = "path is not absolute"
	ExistsErr          ConstError = "already exists"
	NoFreeEntryErr     ConstError = "no free directory entry"
	NotAFileOrDirErr   ConstError = "neither a regular file nor a directory"
	NotARegularFileErr ConstError = "not a regular file"
	InvalidNameErr     ConstError = "invalid name"
	OutOfBlocksErr     ConstError = "out of blocks"
	OutOfInosErr       ConstError = "out of inodes"
	FileTooLargeErr    ConstError = "file too large"
	ReadOnlyErr        ConstError = "file system is read-only"
)
