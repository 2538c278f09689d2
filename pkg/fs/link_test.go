package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weberc2/xv6fs/pkg/encode"
	. "github.com/weberc2/xv6fs/pkg/types"
)

func TestUnlink(t *testing.T) {
	fs, dev := newScenarioFS(t)

	ino, err := fs.Create(5, "file.txt")
	require.NoError(t, err)
	require.NoError(t, fs.Unlink("/etc/file.txt"))

	// the whole slot is cleared, in the cache and on disk
	buf, err := fs.cache.Read(fs.dev, 13)
	require.NoError(t, err)
	assert.Equal(
		t,
		[DirEntrySize]byte{},
		*encode.DirEntryAt(buf.Data(), 2),
	)
	assert.False(t, buf.Dirty())
	fs.cache.Release(buf)
	assert.Equal(t, make([]byte, DirEntrySize), rawEntry(dev, 13, 2))

	_, err = fs.ResolvePath("/etc/file.txt")
	assert.ErrorIs(t, err, NotFoundErr)

	// the inode and its allocation survive
	inode, err := fs.ReadInode(ino)
	require.NoError(t, err)
	assert.Equal(t, FileTypeRegular, inode.Type)
	assert.Equal(t, int16(1), inode.Nlink)
	assert.True(t, fs.inos.IsSet(ino))

	next, err := fs.Create(5, "other.txt")
	require.NoError(t, err)
	assert.Equal(t, ino+1, next)
}

func TestUnlink_Directory(t *testing.T) {
	fs, _ := newScenarioFS(t)

	require.NoError(t, fs.Unlink("/etc"))
	_, err := fs.ResolvePath("/etc")
	assert.ErrorIs(t, err, NotFoundErr)

	inode, err := fs.ReadInode(5)
	require.NoError(t, err)
	assert.Equal(t, FileTypeDir, inode.Type)
}

func TestUnlink_Errors(t *testing.T) {
	fs, _ := newScenarioFS(t)

	device, err := fs.Create(5, "tty")
	require.NoError(t, err)
	inode, err := fs.ReadInode(device)
	require.NoError(t, err)
	inode.Type = FileTypeDevice
	require.NoError(t, fs.UpdateInode(&inode))

	for _, testCase := range []struct {
		path string
		err  error
	}{
		{"/missing", NotFoundErr},
		{"/missing/a.txt", NotFoundErr},
		{"/a.txt/x", NotADirErr},
		{"/etc/.", InvalidNameErr},
		{"/etc/..", InvalidNameErr},
		{"/", InvalidNameErr},
		{"a.txt", NotAbsolutePathErr},
		{"/etc/tty", NotAFileOrDirErr},
	} {
		t.Run(testCase.path, func(t *testing.T) {
			assert.ErrorIs(t, fs.Unlink(testCase.path), testCase.err)
		})
	}
}

func TestLink(t *testing.T) {
	fs, dev := newScenarioFS(t)

	a, err := fs.Create(5, "a.txt")
	require.NoError(t, err)
	_, err = fs.Create(5, "b.txt")
	require.NoError(t, err)

	require.NoError(t, fs.Link("/etc/a.txt", "/etc/b.txt"))

	for _, path := range []string{"/etc/a.txt", "/etc/b.txt"} {
		ino, err := fs.ResolvePath(path)
		require.NoError(t, err)
		assert.Equal(t, a, ino, path)
	}

	// the destination entry keeps its name and slot
	var entry DirEntry
	encode.DecodeDirEntry(&entry, (*[DirEntrySize]byte)(rawEntry(dev, 13, 3)))
	assert.Equal(t, DirEntry{Ino: a, Name: "b.txt"}, entry)

	// across directories
	require.NoError(t, fs.Link("/c.txt", "/etc/a.txt"))
	ino, err := fs.ResolvePath("/etc/a.txt")
	require.NoError(t, err)
	assert.Equal(t, Ino(4), ino)
}

func TestLink_Errors(t *testing.T) {
	fs, _ := newScenarioFS(t)

	for _, testCase := range []struct {
		name   string
		source string
		dest   string
		err    error
	}{
		{"source-missing", "/missing", "/a.txt", NotFoundErr},
		{"source-parent-missing", "/x/y", "/a.txt", NotFoundErr},
		{"source-dir", "/etc", "/a.txt", NotARegularFileErr},
		{"dest-missing", "/a.txt", "/etc/new.txt", NotFoundErr},
		{"dest-parent-missing", "/a.txt", "/x/y", NotFoundErr},
		{"dest-dir", "/a.txt", "/etc", NotARegularFileErr},
		{"relative", "a.txt", "/b.txt", NotAbsolutePathErr},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			assert.ErrorIs(
				t,
				fs.Link(testCase.source, testCase.dest),
				testCase.err,
			)
		})
	}

	// the failed attempts changed nothing
	for path, wanted := range map[string]Ino{"/a.txt": 2, "/b.txt": 3} {
		ino, err := fs.ResolvePath(path)
		require.NoError(t, err)
		assert.Equal(t, wanted, ino, path)
	}
}
