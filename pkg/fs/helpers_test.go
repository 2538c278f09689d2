package fs

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/weberc2/xv6fs/pkg/io"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// smallImage is laid out as boot(0) super(1) log(2-5) inodes(6-10)
// bitmap(11) with the root directory in block 12.
var smallImage = FormatParams{Size: 200, Inodes: 64, LogBlocks: 4}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func newImage(t *testing.T, params FormatParams) *io.Buffer {
	t.Helper()
	dev := io.NewBuffer(nil)
	require.NoError(t, Format(dev, &params, testLogger()))
	return dev
}

func mount(t *testing.T, dev io.Device) *FileSystem {
	t.Helper()
	fs, err := Mount(&MountParams{
		Device:        dev,
		CacheCapacity: 8,
		Logger:        testLogger(),
	})
	require.NoError(t, err)
	return fs
}

// newScenarioFS builds an image whose root (1) holds `a.txt` (2), `b.txt`
// (3), `c.txt` (4) and the directory `etc` (5).
func newScenarioFS(t *testing.T) (*FileSystem, *io.Buffer) {
	t.Helper()
	dev := newImage(t, smallImage)
	fs := mount(t, dev)
	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		ino, err := fs.Create(InoRoot, name)
		require.NoError(t, err)
		require.Equal(t, Ino(i+2), ino)
	}
	ino, err := fs.MakeDirectory("/etc")
	require.NoError(t, err)
	require.Equal(t, Ino(5), ino)
	return fs, dev
}

// rawEntry returns the on-disk bytes of the `i`th entry of block `b`.
func rawEntry(dev *io.Buffer, b Block, i int) []byte {
	start := b.Offset() + Byte(i)*DirEntrySize
	return dev.Bytes()[start : start+DirEntrySize]
}
