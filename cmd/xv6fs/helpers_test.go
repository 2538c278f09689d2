package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
	"github.com/weberc2/xv6fs/pkg/io"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

// newFS formats and mounts a small in-memory image.
func newFS(t *testing.T) *xv6fs.FileSystem {
	t.Helper()
	dev := io.NewBuffer(nil)
	params := xv6fs.FormatParams{Size: 200, Inodes: 64, LogBlocks: 4}
	require.NoError(t, xv6fs.Format(dev, &params, testLogger()))
	fsys, err := xv6fs.Mount(&xv6fs.MountParams{
		Device:        dev,
		CacheCapacity: 8,
		Logger:        testLogger(),
	})
	require.NoError(t, err)
	return fsys
}
