package io

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/weberc2/xv6fs/pkg/types"
)

func TestWriteBlockThenReadBlock(t *testing.T) {
	dev := NewBuffer(make([]byte, 4*BlockSize))

	var wanted [BlockSize]byte
	for i := range wanted {
		wanted[i] = byte(i)
	}
	if err := WriteBlock(dev, 2, &wanted); err != nil {
		t.Fatalf("WriteBlock(): unexpected err: %v", err)
	}

	// the block lands at `block * BlockSize` and nowhere else
	raw := dev.Bytes()
	if !bytes.Equal(raw[2*BlockSize:3*BlockSize], wanted[:]) {
		t.Fatal("WriteBlock(): block 2 not written at offset 2048")
	}
	if !bytes.Equal(raw[BlockSize:2*BlockSize], make([]byte, BlockSize)) {
		t.Fatal("WriteBlock(): block 1 unexpectedly modified")
	}

	var found [BlockSize]byte
	if err := ReadBlock(dev, 2, &found); err != nil {
		t.Fatalf("ReadBlock(): unexpected err: %v", err)
	}
	if found != wanted {
		t.Fatal("ReadBlock(): wanted the bytes written by WriteBlock()")
	}
}

func TestReadBlock_ShortRead(t *testing.T) {
	// only half of block 1 exists on the device
	dev := NewBuffer(make([]byte, BlockSize+BlockSize/2))
	var p [BlockSize]byte
	err := ReadBlock(dev, 1, &p)
	if !errors.Is(err, DeviceErr) {
		t.Fatalf("ReadBlock(): wanted `DeviceErr`; found `%v`", err)
	}
}

type brokenDevice struct{ *Buffer }

func (brokenDevice) Seek(int64, int) (int64, error) {
	return 0, errors.New("seek failed")
}

func TestReadBlock_SeekFailure(t *testing.T) {
	dev := &brokenDevice{NewBuffer(make([]byte, 2*BlockSize))}
	var p [BlockSize]byte
	if err := ReadBlock(dev, 1, &p); !errors.Is(err, DeviceErr) {
		t.Fatalf("ReadBlock(): wanted `DeviceErr`; found `%v`", err)
	}
	if err := WriteBlock(dev, 1, &p); !errors.Is(err, DeviceErr) {
		t.Fatalf("WriteBlock(): wanted `DeviceErr`; found `%v`", err)
	}
}

// positionalDevice supports `ReadAt`/`WriteAt` but can't seek.
type positionalDevice struct{ brokenDevice }

func (pd positionalDevice) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(pd.Bytes()).ReadAt(p, off)
}

func (pd positionalDevice) WriteAt(p []byte, off int64) (int, error) {
	return copy(pd.Bytes()[off:], p), nil
}

func TestBlockIO_Positional(t *testing.T) {
	dev := positionalDevice{brokenDevice{NewBuffer(make([]byte, 3*BlockSize))}}

	var wanted [BlockSize]byte
	wanted[0], wanted[BlockSize-1] = 7, 9
	if err := WriteBlock(dev, 1, &wanted); err != nil {
		t.Fatalf("WriteBlock(): unexpected err: %v", err)
	}
	var found [BlockSize]byte
	if err := ReadBlock(dev, 1, &found); err != nil {
		t.Fatalf("ReadBlock(): unexpected err: %v", err)
	}
	if found != wanted {
		t.Fatal("ReadBlock(): wanted the bytes written by WriteBlock()")
	}

	// reading past the end is still a short read
	if err := ReadBlock(dev, 3, &found); !errors.Is(err, DeviceErr) {
		t.Fatalf("ReadBlock(): wanted `DeviceErr`; found `%v`", err)
	}
}
