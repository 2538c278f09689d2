package types

const (
	DirEntrySize       Byte = 16
	DirNameSize             = 14
	DirEntriesPerBlock      = int(BlockSize / DirEntrySize)

	// MaxInodes bounds the inode count: a directory entry stores its inode
	// number in two bytes.
	MaxInodes Ino = 1 << 16
)

// DirEntry is a single directory slot. An entry whose `Ino` is `InoNil` is
// an empty (or deleted) slot.
type DirEntry struct {
	Ino  Ino    `json:"ino"`
	Name string `json:"name"`
}

// TruncateName clips a name to the width of the on-disk name field.
func TruncateName(name string) string {
	if len(name) > DirNameSize {
		return name[:DirNameSize]
	}
	return name
}
