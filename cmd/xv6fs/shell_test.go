package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
	. "github.com/weberc2/xv6fs/pkg/types"
)

func runShell(t *testing.T, script string) (string, *shell) {
	t.Helper()
	var out bytes.Buffer
	sh := newShell(newFS(t), &out, testLogger())
	require.NoError(t, sh.run(strings.NewReader(script), false))
	return out.String(), sh
}

func TestShell_Session(t *testing.T) {
	out, sh := runShell(t, strings.Join([]string{
		"# comments and blank lines are ignored",
		"",
		"mkdir /etc",
		"cd etc",
		"pwd",
		"creat motd",
		"write motd hello world",
		"cat motd",
		"cd ..",
		"pwd",
		"cat etc/motd",
		"quit",
		"mkdir /never",
	}, "\n"))

	wanted := strings.Join([]string{
		"created inode 2",
		"/etc",
		"created inode 3",
		"hello world",
		"/",
		"hello world",
		"",
	}, "\n")
	assert.Equal(t, wanted, out)

	_, err := sh.fsys.ResolvePath("/never")
	assert.ErrorIs(t, err, xv6fs.NotFoundErr)
}

func TestShell_Errors(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		script string
	}{
		{name: "unknown-command", script: "frobnicate"},
		{name: "cd-missing", script: "cd nowhere"},
		{name: "cd-file", script: "creat f\ncd f"},
		{name: "arity", script: "cat"},
		{name: "cat-missing", script: "cat nothing"},
		{name: "unlink-dot", script: "unlink ."},
		{name: "ls-bad-flag", script: "ls -x"},
		{name: "download-missing", script: "download /no/such/host/file"},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			out, sh := runShell(t, testCase.script)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			last := lines[len(lines)-1]
			if !strings.HasPrefix(last, "error: ") {
				t.Fatalf(
					"run(): wanted output ending in an error; found `%s`",
					out,
				)
			}
			assert.Equal(t, "/", sh.cwd.Path())
		})
	}
}

func TestShell_List(t *testing.T) {
	out, _ := runShell(t, "mkdir /bin\ncd /bin\nwrite sh xyz\nls\nls -R /")

	entry := func(name string, ino Ino, typ FileType, size uint32) string {
		return fmt.Sprintf("%-14s %d %d %d\n", name, int16(typ), ino, size)
	}
	bin := entry(".", 2, FileTypeDir, 48) +
		entry("..", 1, FileTypeDir, 1024) +
		entry("sh", 3, FileTypeRegular, 4)
	root := entry(".", 1, FileTypeDir, 1024) +
		entry("..", 1, FileTypeDir, 1024) +
		entry("bin", 2, FileTypeDir, 48)

	wanted := "created inode 2\n" + bin +
		"/:\n" + root + "\n/bin:\n" + bin
	assert.Equal(t, wanted, out)
}

func TestShell_ListEntry(t *testing.T) {
	out, _ := runShell(t, "mkdir /bin\ncd /bin\nls -d\nls -d /\nls -d -R ..")
	wanted := "created inode 2\n" +
		fmt.Sprintf("%-14s %d %d %d\n", "bin", int16(FileTypeDir), 2, 32) +
		fmt.Sprintf("%-14s %d %d %d\n", "/", int16(FileTypeDir), 1, 1024) +
		fmt.Sprintf("%-14s %d %d %d\n", "/", int16(FileTypeDir), 1, 1024)
	assert.Equal(t, wanted, out)
}

func TestShell_Transfers(t *testing.T) {
	dir := t.TempDir()
	host := filepath.Join(dir, "Motd.TXT")
	require.NoError(t, os.WriteFile(host, []byte("hi\n"), 0644))
	out := filepath.Join(dir, "out.txt")
	tree := filepath.Join(dir, "tree.txt")

	found, sh := runShell(t, strings.Join([]string{
		"mkdir /etc",
		"cd /etc",
		"download " + host,
		"upload motd.txt " + out,
		"uploadtree " + tree,
	}, "\n"))
	assert.Equal(
		t,
		"created inode 2\n"+
			"downloaded /etc/motd.txt (inode 3)\n"+
			"uploaded to "+out+"\n",
		found,
	)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))

	var listing bytes.Buffer
	require.NoError(t, sh.fsys.ListTree(&listing, "/"))
	data, err = os.ReadFile(tree)
	require.NoError(t, err)
	assert.Equal(t, listing.String(), string(data))
}

func TestShell_Help(t *testing.T) {
	out, _ := runShell(t, "help")
	for name := range shellCommands {
		assert.Contains(t, out, "  "+name)
	}
	assert.Contains(t, out, "quit")
}

func TestShell_Prompt(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(newFS(t), &out, testLogger())
	require.NoError(t, sh.run(strings.NewReader("pwd\n"), true))
	assert.Equal(t, prompt+"/\n"+prompt, out.String())
}
