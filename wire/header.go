package wire

// Binary protocol magic bytes (header offset 0).
const (
	MagicRequest  uint8 = 0x80
	MagicResponse uint8 = 0x81
)

// Opcodes supported by this client. Other codes exist in the protocol but
// are never emitted or parsed here.
const (
	OpGet       uint8 = 0x00
	OpSet       uint8 = 0x01
	OpAdd       uint8 = 0x02
	OpReplace   uint8 = 0x03
	OpDelete    uint8 = 0x04
	OpIncrement uint8 = 0x05
	OpDecrement uint8 = 0x06
	OpQuit      uint8 = 0x07
	OpFlush     uint8 = 0x08
	OpNoop      uint8 = 0x0a
	OpVersion   uint8 = 0x0b
	OpGetK      uint8 = 0x0c
	OpGetKQ     uint8 = 0x0d
	OpAppend    uint8 = 0x0e
	OpPrepend   uint8 = 0x0f
	OpStat      uint8 = 0x10
	OpVerbosity uint8 = 0x1b
	OpTouch     uint8 = 0x1c
)

// HeaderLen is the fixed size of the binary protocol header.
const HeaderLen = 24

// Header is the 24-byte binary protocol header, request or response. All
// multi-byte fields are big-endian. StatusOrVBucket holds the vbucket id on
// a request and the status code on a response; callers interpret the field
// according to the direction they're packing.
type Header struct {
	Magic           uint8
	Opcode          uint8
	KeyLen          uint16
	ExtraLen        uint8
	DataType        uint8
	StatusOrVBucket uint16
	BodyLen         uint32
	Opaque          uint32
	CAS             uint64
}

// Pack serializes h into a new HeaderLen-byte buffer.
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderLen)
	off := 0
	off = PutUint8(buf, off, h.Magic)
	off = PutUint8(buf, off, h.Opcode)
	off = PutUint16(buf, off, h.KeyLen)
	off = PutUint8(buf, off, h.ExtraLen)
	off = PutUint8(buf, off, h.DataType)
	off = PutUint16(buf, off, h.StatusOrVBucket)
	off = PutUint32(buf, off, h.BodyLen)
	off = PutUint32(buf, off, h.Opaque)
	PutUint64(buf, off, h.CAS)
	return buf
}

// UnpackHeader parses a HeaderLen-byte buffer into a Header.
func UnpackHeader(buf []byte) Header {
	var h Header
	off := 0
	h.Magic = Uint8(buf, off)
	off++
	h.Opcode = Uint8(buf, off)
	off++
	h.KeyLen = Uint16(buf, off)
	off += 2
	h.ExtraLen = Uint8(buf, off)
	off++
	h.DataType = Uint8(buf, off)
	off++
	h.StatusOrVBucket = Uint16(buf, off)
	off += 2
	h.BodyLen = Uint32(buf, off)
	off += 4
	h.Opaque = Uint32(buf, off)
	off += 4
	h.CAS = Uint64(buf, off)
	return h
}

// ValueLen returns body_len - extra_len - key_len, the length of the value
// portion of the body.
func (h *Header) ValueLen() int {
	return int(h.BodyLen) - int(h.ExtraLen) - int(h.KeyLen)
}
