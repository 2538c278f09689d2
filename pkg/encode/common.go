package encode

import (
	"encoding/binary"

	. "github.com/weberc2/xv6fs/pkg/types"
)

func putIno(b []byte, start Byte, ino Ino) {
	putU32(b, start, uint32(ino))
}

func getIno(b []byte, start Byte) Ino {
	return Ino(getU32(b, start))
}

func putBlock(b []byte, start Byte, block Block) {
	putU32(b, start, uint32(block))
}

func getBlock(b []byte, start Byte) Block {
	return Block(getU32(b, start))
}

func putU32(b []byte, start Byte, u uint32) {
	binary.LittleEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.LittleEndian.Uint32(b[start : start+4])
}

func putU16(b []byte, start Byte, u uint16) {
	binary.LittleEndian.PutUint16(b[start:start+2], u)
}

func getU16(b []byte, start Byte) uint16 {
	return binary.LittleEndian.Uint16(b[start : start+2])
}
