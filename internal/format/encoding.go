package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// WDBC tables store every integer little-endian. Go's encoding/binary is
// already inlined well by the compiler, so these helpers only fix the offset
// arithmetic in one place.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// AppendU32 appends v to b in little-endian format.
func AppendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}
