package fs

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/alloc"
	"github.com/weberc2/xv6fs/pkg/bcache"
	"github.com/weberc2/xv6fs/pkg/encode"
	"github.com/weberc2/xv6fs/pkg/io"
	. "github.com/weberc2/xv6fs/pkg/types"
)

// DefaultCacheCapacity matches xv6's NBUF.
const DefaultCacheCapacity = 30

// FileSystem is a mounted xv6 image. It is not safe for concurrent use; the
// buffer cache it sits on is.
type FileSystem struct {
	dev        io.Device
	cache      *bcache.Cache
	superblock Superblock
	bitmap     *alloc.FlushableBitmap
	blocks     alloc.BlockAllocator
	inos       alloc.InoAllocator
	readOnly   bool
	logger     logrus.FieldLogger
}

type MountParams struct {
	Device io.Device

	// Cache is shared with other mounts if set; otherwise a new cache of
	// `CacheCapacity` buffers is allocated.
	Cache         *bcache.Cache
	CacheCapacity int

	ReadOnly bool
	Logger   logrus.FieldLogger
}

// Mount reads and validates the superblock of the image on `params.Device`
// and seeds the block and inode allocators from the on-disk state.
func Mount(params *MountParams) (*FileSystem, error) {
	logger := params.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cache := params.Cache
	if cache == nil {
		capacity := params.CacheCapacity
		if capacity < 1 {
			capacity = DefaultCacheCapacity
		}
		cache = bcache.New(capacity, logger)
	}

	fs := FileSystem{
		dev:      params.Device,
		cache:    cache,
		readOnly: params.ReadOnly,
		logger:   logger,
	}
	if err := fs.readSuperblock(); err != nil {
		return nil, fmt.Errorf("mounting file system: %w", err)
	}
	if err := fs.loadBitmap(); err != nil {
		return nil, fmt.Errorf("mounting file system: %w", err)
	}
	if err := fs.scanInodes(); err != nil {
		return nil, fmt.Errorf("mounting file system: %w", err)
	}
	fs.logger.WithFields(logrus.Fields{
		"size":   fs.superblock.Size,
		"inodes": fs.superblock.Inodes,
	}).Debug("mounted file system")
	return &fs, nil
}

func (fs *FileSystem) readSuperblock() error {
	buf, err := fs.cache.Read(fs.dev, SuperblockBlock)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	defer fs.cache.Release(buf)

	if err := encode.DecodeSuperblock(
		&fs.superblock,
		(*[SuperblockSize]byte)(buf.Data()[:SuperblockSize]),
	); err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	return nil
}

func (fs *FileSystem) Superblock() Superblock { return fs.superblock }

func (fs *FileSystem) Cache() *bcache.Cache { return fs.cache }

func (fs *FileSystem) ReadOnly() bool { return fs.readOnly }

// Sync writes every dirty cached block back to the image and returns the
// number of blocks written.
func (fs *FileSystem) Sync() (int, error) {
	if err := fs.bitmap.Flush(); err != nil {
		return 0, fmt.Errorf("syncing file system: %w", err)
	}
	written, err := fs.cache.Sync()
	if err != nil {
		return written, fmt.Errorf("syncing file system: %w", err)
	}
	return written, nil
}

func (fs *FileSystem) checkWritable() error {
	if fs.readOnly {
		return ReadOnlyErr
	}
	return nil
}
