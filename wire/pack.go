// Package wire contains the bare minimum needed to pack and unpack the
// memcached wire formats: big-endian scalar encoding, the binary protocol's
// fixed 24-byte header, and the status code taxonomy shared by both the
// text and binary connections.
package wire

import "encoding/binary"

// PutUint8 writes v at buf[off] and returns the next offset.
func PutUint8(buf []byte, off int, v uint8) int {
	buf[off] = v
	return off + 1
}

// Uint8 reads a byte at buf[off].
func Uint8(buf []byte, off int) uint8 {
	return buf[off]
}

// PutUint16 writes v at buf[off:off+2] in network byte order.
func PutUint16(buf []byte, off int, v uint16) int {
	binary.BigEndian.PutUint16(buf[off:], v)
	return off + 2
}

// Uint16 reads a big-endian uint16 at buf[off:off+2].
func Uint16(buf []byte, off int) uint16 {
	return binary.BigEndian.Uint16(buf[off:])
}

// PutUint32 writes v at buf[off:off+4] in network byte order.
func PutUint32(buf []byte, off int, v uint32) int {
	binary.BigEndian.PutUint32(buf[off:], v)
	return off + 4
}

// Uint32 reads a big-endian uint32 at buf[off:off+4].
func Uint32(buf []byte, off int) uint32 {
	return binary.BigEndian.Uint32(buf[off:])
}

// PutUint64 writes v at buf[off:off+8] in network byte order.
func PutUint64(buf []byte, off int, v uint64) int {
	binary.BigEndian.PutUint64(buf[off:], v)
	return off + 8
}

// Uint64 reads a big-endian uint64 at buf[off:off+8].
func Uint64(buf []byte, off int) uint64 {
	return binary.BigEndian.Uint64(buf[off:])
}

// CopyBytes copies len bytes from src[srcOff:] into dst[dstOff:] and returns
// dstOff+len. src and dst must not overlap.
func CopyBytes(dst []byte, dstOff int, src []byte, srcOff int, n int) int {
	copy(dst[dstOff:dstOff+n], src[srcOff:srcOff+n])
	return dstOff + n
}
