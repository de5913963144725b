package wire_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/m-lab/memcache-info/wire"
)

func TestHeaderPackUnpackRoundTrip(t *testing.T) {
	h := wire.Header{
		Magic:           wire.MagicRequest,
		Opcode:          wire.OpSet,
		KeyLen:          3,
		ExtraLen:        8,
		DataType:        0,
		StatusOrVBucket: 0,
		BodyLen:         8 + 3 + 5,
		Opaque:          42,
		CAS:             1234567890,
	}
	buf := h.Pack()
	if len(buf) != wire.HeaderLen {
		t.Fatalf("Pack() len = %d, want %d", len(buf), wire.HeaderLen)
	}
	got := wire.UnpackHeader(buf)
	if diff := deep.Equal(got, h); diff != nil {
		t.Errorf("round trip differs: %v", diff)
	}
}

func TestHeaderBodyLenIsSumOfParts(t *testing.T) {
	keyLen, extraLen, valueLen := 5, 8, 11
	h := wire.Header{
		KeyLen:   uint16(keyLen),
		ExtraLen: uint8(extraLen),
		BodyLen:  uint32(keyLen + extraLen + valueLen),
	}
	if int(h.BodyLen) != keyLen+extraLen+valueLen {
		t.Fatalf("BodyLen invariant violated")
	}
	if h.ValueLen() != valueLen {
		t.Errorf("ValueLen() = %d, want %d", h.ValueLen(), valueLen)
	}
}

func TestHeaderMagicByteOffsets(t *testing.T) {
	h := wire.Header{Magic: wire.MagicResponse, Opcode: wire.OpGetK}
	buf := h.Pack()
	if buf[0] != wire.MagicResponse {
		t.Errorf("byte 0 = %x, want magic %x", buf[0], wire.MagicResponse)
	}
	if buf[1] != wire.OpGetK {
		t.Errorf("byte 1 = %x, want opcode %x", buf[1], wire.OpGetK)
	}
}
