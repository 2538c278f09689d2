package alloc

import (
	"sync"
)

// BitmapStore persists a bitmap's serialized form.
type BitmapStore interface {
	Put(*Bitmap) error
}

// FlushableBitmap is a `Bitmap` which remembers whether it has changed since
// it was last written to its store.
type FlushableBitmap struct {
	bitmap *Bitmap
	store  BitmapStore
	mutex  sync.Mutex
	dirty  bool
}

func NewFlushable(bitmap *Bitmap, store BitmapStore) *FlushableBitmap {
	return &FlushableBitmap{bitmap: bitmap, store: store}
}

func (bitmap *FlushableBitmap) Alloc() (uint64, bool) {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	handle, ok := bitmap.bitmap.Alloc()
	if ok {
		bitmap.dirty = true
	}
	return handle, ok
}

func (bitmap *FlushableBitmap) Reserve(handle uint64) {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	if !bitmap.bitmap.IsSet(handle) {
		bitmap.bitmap.Reserve(handle)
		bitmap.dirty = true
	}
}

func (bitmap *FlushableBitmap) Free(handle uint64) {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	if bitmap.bitmap.IsSet(handle) {
		bitmap.bitmap.Free(handle)
		bitmap.dirty = true
	}
}

func (bitmap *FlushableBitmap) IsSet(handle uint64) bool {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	return bitmap.bitmap.IsSet(handle)
}

func (bitmap *FlushableBitmap) Dirty() bool {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	return bitmap.dirty
}

func (bitmap *FlushableBitmap) Used() uint64 {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	return bitmap.bitmap.Used()
}

func (bitmap *FlushableBitmap) Flush() error {
	bitmap.mutex.Lock()
	defer bitmap.mutex.Unlock()
	if bitmap.dirty {
		if err := bitmap.store.Put(bitmap.bitmap); err != nil {
			return err
		}
		bitmap.dirty = false
	}
	return nil
}
