package fs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weberc2/xv6fs/pkg/encode"
	"github.com/weberc2/xv6fs/pkg/io"
	"github.com/weberc2/xv6fs/pkg/testsupport"
	. "github.com/weberc2/xv6fs/pkg/types"
)

func TestMakeDirectory(t *testing.T) {
	fs, dev := newScenarioFS(t)

	ino, err := fs.MakeDirectory("/etc/conf")
	require.NoError(t, err)
	assert.Equal(t, Ino(6), ino)

	conf, err := fs.ReadInode(6)
	require.NoError(t, err)
	assert.Equal(t, FileTypeDir, conf.Type)
	assert.Equal(t, int16(2), conf.Nlink)
	assert.Equal(t, uint32(2*DirEntrySize), conf.Size)
	assert.Equal(t, []Block{14}, conf.DirectBlocks())

	found, err := fs.LookupInDirectory(5, "conf")
	require.NoError(t, err)
	assert.Equal(t, Ino(6), found)

	assert.Equal(
		t,
		[]byte{6, 0, '.', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		rawEntry(dev, 14, 0),
	)
	assert.Equal(
		t,
		[]byte{5, 0, '.', '.', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		rawEntry(dev, 14, 1),
	)
	for i := 2; i < DirEntriesPerBlock; i++ {
		require.Equal(t, make([]byte, DirEntrySize), rawEntry(dev, 14, i))
	}

	etc, err := fs.ReadInode(5)
	require.NoError(t, err)
	assert.Equal(t, int16(3), etc.Nlink)
	assert.Equal(t, uint32(3*DirEntrySize), etc.Size)

	// everything was written through, so a fresh mount sees it
	remounted := mount(t, dev)
	found, err = remounted.ResolvePath("/etc/conf/..")
	require.NoError(t, err)
	assert.Equal(t, Ino(5), found)
}

func TestMakeDirectory_Errors(t *testing.T) {
	fs, _ := newScenarioFS(t)

	for _, testCase := range []struct {
		path string
		err  error
	}{
		{"/etc", ExistsErr},
		{"/etc/", ExistsErr},
		{"/a.txt", ExistsErr},
		{"/missing/dir", NotFoundErr},
		{"/a.txt/dir", NotADirErr},
		{"etc/dir", NotAbsolutePathErr},
		{"/", InvalidNameErr},
	} {
		t.Run(testCase.path, func(t *testing.T) {
			ino, err := fs.MakeDirectory(testCase.path)
			assert.ErrorIs(t, err, testCase.err)
			assert.Equal(t, InoNil, ino)
		})
	}

	// nothing was allocated by the failed attempts
	ino, err := fs.MakeDirectory("/etc/conf")
	require.NoError(t, err)
	assert.Equal(t, Ino(6), ino)
}

func TestCreate(t *testing.T) {
	fs, dev := newScenarioFS(t)

	ino, err := fs.Create(5, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, Ino(6), ino)

	inode, err := fs.ReadInode(ino)
	require.NoError(t, err)
	assert.Equal(t, FileTypeRegular, inode.Type)
	assert.Equal(t, int16(1), inode.Nlink)
	assert.Equal(t, uint32(0), inode.Size)

	// the etc directory block holds `.`, `..` and then the new entry
	var entry DirEntry
	encode.DecodeDirEntry(&entry, (*[DirEntrySize]byte)(rawEntry(dev, 13, 2)))
	assert.Equal(t, DirEntry{Ino: 6, Name: "file.txt"}, entry)

	etc, err := fs.ReadInode(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(3*DirEntrySize), etc.Size)
}

func TestCreate_Errors(t *testing.T) {
	fs, _ := newScenarioFS(t)

	for _, testCase := range []struct {
		name   string
		parent Ino
		file   string
		err    error
	}{
		{"exists", InoRoot, "a.txt", ExistsErr},
		{"self", 5, ".", ExistsErr},
		{"parent-not-dir", 2, "x", NotADirErr},
		{"parent-free", 30, "x", FreeInodeErr},
		{"parent-out-of-range", 99, "x", InoOutOfRangeErr},
		{"empty-name", 5, "", InvalidNameErr},
		{"separator", 5, "x/y", InvalidNameErr},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			ino, err := fs.Create(testCase.parent, testCase.file)
			assert.ErrorIs(t, err, testCase.err)
			assert.Equal(t, InoNil, ino)
		})
	}
}

func TestCreate_ReusesClearedSlot(t *testing.T) {
	fs, _ := newScenarioFS(t)

	require.NoError(t, fs.Unlink("/b.txt"))
	ino, err := fs.Create(InoRoot, "d.txt")
	require.NoError(t, err)
	assert.Equal(t, Ino(6), ino)

	// `.`, `..`, `a.txt` and then the slot `b.txt` used to occupy
	var entry DirEntry
	buf, err := fs.cache.Read(fs.dev, 12)
	require.NoError(t, err)
	encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), 3))
	fs.cache.Release(buf)
	assert.Equal(t, DirEntry{Ino: 6, Name: "d.txt"}, entry)
}

var wideImage = FormatParams{Size: 300, Inodes: 200, LogBlocks: 4}

// fullDirectory makes `/d` and fills the rest of its only block.
func fullDirectory(t *testing.T, fs *FileSystem) Ino {
	t.Helper()
	dir, err := fs.MakeDirectory("/d")
	require.NoError(t, err)
	// `.` and `..` leave 62 free slots in the first block
	for i := 0; i < DirEntriesPerBlock-2; i++ {
		_, err := fs.Create(dir, fmt.Sprintf("f%d", i))
		require.NoError(t, err)
	}
	return dir
}

func TestCreate_NoFreeEntry(t *testing.T) {
	fs := mount(t, newImage(t, wideImage))
	dir := fullDirectory(t, fs)

	blocks, inodes := fs.Usage()
	ino, err := fs.Create(dir, "overflow")
	assert.ErrorIs(t, err, NoFreeEntryErr)
	assert.Equal(t, InoNil, ino)

	ino, err = fs.MakeDirectory("/d/sub")
	assert.ErrorIs(t, err, NoFreeEntryErr)
	assert.Equal(t, InoNil, ino)

	// the directory didn't grow and nothing was allocated
	inode, err := fs.ReadInode(dir)
	require.NoError(t, err)
	assert.Len(t, inode.DirectBlocks(), 1)
	assert.Equal(t, uint32(BlockSize), inode.Size)
	afterBlocks, afterInodes := fs.Usage()
	assert.Equal(t, blocks, afterBlocks)
	assert.Equal(t, inodes, afterInodes)

	_, err = fs.ResolvePath("/d/overflow")
	assert.ErrorIs(t, err, NotFoundErr)
}

func TestCreate_ScansEveryDirectBlock(t *testing.T) {
	fs := mount(t, newImage(t, wideImage))
	dir := fullDirectory(t, fs)

	// link a second, empty block into the directory by hand
	block, err := fs.AllocateBlock()
	require.NoError(t, err)
	inode, err := fs.ReadInode(dir)
	require.NoError(t, err)
	inode.Addrs[1] = block
	require.NoError(t, fs.UpdateInode(&inode))

	last, err := fs.Create(dir, "overflow")
	require.NoError(t, err)

	inode, err = fs.ReadInode(dir)
	require.NoError(t, err)
	assert.Equal(t, []Block{inode.Addrs[0], block}, inode.DirectBlocks())
	assert.Equal(t, uint32(BlockSize+DirEntrySize), inode.Size)

	var entry DirEntry
	buf, err := fs.cache.Read(fs.dev, block)
	require.NoError(t, err)
	encode.DecodeDirEntry(&entry, encode.DirEntryAt(buf.Data(), 0))
	fs.cache.Release(buf)
	assert.Equal(t, DirEntry{Ino: last, Name: "overflow"}, entry)

	found, err := fs.ResolvePath("/d/overflow")
	require.NoError(t, err)
	assert.Equal(t, last, found)
}

func TestMakeDirectory_EntryFailureReleasesInodeAndBlock(t *testing.T) {
	image := newImage(t, smallImage)
	dev := &testsupport.FailingDevice{
		Device:     image,
		FailBlocks: map[Block]struct{}{12: {}},
	}
	fs := mount(t, dev)
	sb := fs.Superblock()

	// the root's block (12) can't be written, so the new entry can't land
	dev.FailWrites = true
	ino, err := fs.MakeDirectory("/d")
	assert.ErrorIs(t, err, io.DeviceErr)
	assert.Equal(t, InoNil, ino)

	assert.False(t, fs.inos.IsSet(2))
	assert.False(t, fs.blocks.IsSet(13))
	assert.False(t, bitmapBitSet(image, sb, 13))
	record, err := fs.readInodeRecord(2)
	require.NoError(t, err)
	assert.True(t, record.IsFree())
	root, err := fs.ReadInode(InoRoot)
	require.NoError(t, err)
	assert.Equal(t, int16(1), root.Nlink)

	dev.FailWrites = false
	ino, err = fs.MakeDirectory("/d")
	require.NoError(t, err)
	assert.Equal(t, Ino(2), ino)
	found, err := fs.ResolvePath("/d")
	require.NoError(t, err)
	assert.Equal(t, Ino(2), found)
	stat, err := fs.Stat("/d")
	require.NoError(t, err)
	assert.Equal(t, []Block{13}, stat.Blocks)
}
