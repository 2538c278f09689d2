package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/weberc2/xv6fs/pkg/types"
)

func TestListDirectory(t *testing.T) {
	fs, _ := newScenarioFS(t)

	var out strings.Builder
	require.NoError(t, fs.ListDirectory(&out, 12))
	assert.Equal(
		t,
		".              1 1 1024\n"+
			"..             1 1 1024\n"+
			"a.txt          2 2 0\n"+
			"b.txt          2 3 0\n"+
			"c.txt          2 4 0\n"+
			"etc            1 5 32\n",
		out.String(),
	)
}

func TestListDirectory_SkipsFreeInodes(t *testing.T) {
	fs, _ := newScenarioFS(t)

	// free b.txt's inode behind the directory's back
	require.NoError(t, fs.UpdateInode(&Inode{Ino: 3}))

	infos, err := fs.ReadDirectoryBlock(12)
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{".", "..", "a.txt", "c.txt", "etc"}, names)
}

func TestListPath(t *testing.T) {
	fs, _ := newScenarioFS(t)
	_, err := fs.WriteFile("/etc/motd", []byte("hello\n"))
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, fs.ListPath(&out, "/etc"))
	assert.Equal(
		t,
		".              1 5 48\n"+
			"..             1 1 1024\n"+
			"motd           2 6 6\n",
		out.String(),
	)

	out.Reset()
	require.NoError(t, fs.ListPath(&out, "/etc/motd"))
	assert.Equal(t, "motd           2 6 6\n", out.String())

	assert.ErrorIs(t, fs.ListPath(&out, "/nope"), NotFoundErr)
}

func TestListEntry(t *testing.T) {
	fs, _ := newScenarioFS(t)
	for _, testCase := range []struct {
		name   string
		path   string
		wanted string
	}{
		{name: "root", path: "/", wanted: "/              1 1 1024\n"},
		{name: "dir", path: "/etc", wanted: "etc            1 5 32\n"},
		{name: "dot", path: "/etc/.", wanted: ".              1 5 32\n"},
		{name: "file", path: "/a.txt", wanted: "a.txt          2 2 0\n"},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			var out strings.Builder
			require.NoError(t, fs.ListEntry(&out, testCase.path))
			assert.Equal(t, testCase.wanted, out.String())
		})
	}

	var out strings.Builder
	assert.ErrorIs(t, fs.ListEntry(&out, "/nope"), NotFoundErr)
	assert.Empty(t, out.String())
}

func TestListTree(t *testing.T) {
	fs, _ := newScenarioFS(t)
	_, err := fs.MakeDirectory("/etc/conf")
	require.NoError(t, err)
	require.NoError(t, fs.Unlink("/a.txt"))
	require.NoError(t, fs.Unlink("/b.txt"))

	var out strings.Builder
	require.NoError(t, fs.ListTree(&out, "/"))
	assert.Equal(
		t,
		"/:\n"+
			".              1 1 1024\n"+
			"..             1 1 1024\n"+
			"c.txt          2 4 0\n"+
			"etc            1 5 48\n"+
			"\n"+
			"/etc:\n"+
			".              1 5 48\n"+
			"..             1 1 1024\n"+
			"conf           1 6 32\n"+
			"\n"+
			"/etc/conf:\n"+
			".              1 6 32\n"+
			"..             1 5 48\n",
		out.String(),
	)
}

func TestStat(t *testing.T) {
	fs, _ := newScenarioFS(t)
	_, err := fs.WriteFile("/b.txt", make([]byte, 1500))
	require.NoError(t, err)

	stat, err := fs.Stat("/b.txt")
	require.NoError(t, err)
	assert.Equal(
		t,
		Stat{
			Ino:    3,
			Type:   FileTypeRegular,
			Nlink:  1,
			Size:   1500,
			Blocks: []Block{14, 15},
		},
		stat,
	)

	_, err = fs.Stat("/nope")
	assert.ErrorIs(t, err, NotFoundErr)
}
