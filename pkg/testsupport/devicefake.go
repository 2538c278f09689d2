package testsupport

import (
	"io"
	"runtime"
	"sync"

	. "github.com/weberc2/xv6fs/pkg/types"
)

// CountingDevice wraps a device and records how many times each block has
// been read and written. Transfers are attributed to the block containing the
// cursor at the start of the transfer.
type CountingDevice struct {
	Device io.ReadWriteSeeker
	Reads  map[Block]int
	Writes map[Block]int
	cursor int64
}

func NewCountingDevice(dev io.ReadWriteSeeker) *CountingDevice {
	return &CountingDevice{
		Device: dev,
		Reads:  map[Block]int{},
		Writes: map[Block]int{},
	}
}

func (cd *CountingDevice) Seek(offset int64, whence int) (int64, error) {
	pos, err := cd.Device.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	cd.cursor = pos
	return pos, nil
}

func (cd *CountingDevice) Read(p []byte) (int, error) {
	cd.Reads[Block(cd.cursor/int64(BlockSize))]++
	n, err := cd.Device.Read(p)
	cd.cursor += int64(n)
	return n, err
}

func (cd *CountingDevice) Write(p []byte) (int, error) {
	cd.Writes[Block(cd.cursor/int64(BlockSize))]++
	n, err := cd.Device.Write(p)
	cd.cursor += int64(n)
	return n, err
}

// TotalReads sums the reads of every block.
func (cd *CountingDevice) TotalReads() int { return sum(cd.Reads) }

// TotalWrites sums the writes of every block.
func (cd *CountingDevice) TotalWrites() int { return sum(cd.Writes) }

// Reset forgets all recorded transfers.
func (cd *CountingDevice) Reset() {
	cd.Reads = map[Block]int{}
	cd.Writes = map[Block]int{}
}

func sum(counts map[Block]int) int {
	var total int
	for _, n := range counts {
		total += n
	}
	return total
}

const FakeDeviceErr ConstError = "fake device failure"

// FailingDevice wraps a device and fails transfers once armed. A nil
// `FailBlocks` fails every block; otherwise only the listed ones fail.
type FailingDevice struct {
	Device     io.ReadWriteSeeker
	FailReads  bool
	FailWrites bool
	FailBlocks map[Block]struct{}
	cursor     int64
}

func (fd *FailingDevice) Seek(offset int64, whence int) (int64, error) {
	pos, err := fd.Device.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	fd.cursor = pos
	return pos, nil
}

func (fd *FailingDevice) Read(p []byte) (int, error) {
	if fd.FailReads && fd.fails() {
		return 0, FakeDeviceErr
	}
	n, err := fd.Device.Read(p)
	fd.cursor += int64(n)
	return n, err
}

func (fd *FailingDevice) Write(p []byte) (int, error) {
	if fd.FailWrites && fd.fails() {
		return 0, FakeDeviceErr
	}
	n, err := fd.Device.Write(p)
	fd.cursor += int64(n)
	return n, err
}

func (fd *FailingDevice) fails() bool {
	if fd.FailBlocks == nil {
		return true
	}
	_, found := fd.FailBlocks[Block(fd.cursor/int64(BlockSize))]
	return found
}

// YieldingDevice serializes each call to the wrapped device but yields to
// the scheduler after every seek, like a file shared between goroutines.
// Callers which don't serialize seek-then-transfer sequences end up
// transferring at another caller's offset.
type YieldingDevice struct {
	Device io.ReadWriteSeeker
	mutex  sync.Mutex
}

func NewYieldingDevice(dev io.ReadWriteSeeker) *YieldingDevice {
	return &YieldingDevice{Device: dev}
}

func (yd *YieldingDevice) Seek(offset int64, whence int) (int64, error) {
	yd.mutex.Lock()
	pos, err := yd.Device.Seek(offset, whence)
	yd.mutex.Unlock()
	runtime.Gosched()
	return pos, err
}

func (yd *YieldingDevice) Read(p []byte) (int, error) {
	yd.mutex.Lock()
	defer yd.mutex.Unlock()
	return yd.Device.Read(p)
}

func (yd *YieldingDevice) Write(p []byte) (int, error) {
	yd.mutex.Lock()
	defer yd.mutex.Unlock()
	return yd.Device.Write(p)
}
