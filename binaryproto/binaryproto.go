// Package binaryproto implements the memcached binary protocol: 24-byte
// header pack/unpack, per-opcode body layout, quiet/non-quiet multi-get
// pipelining, and the per-connection dispatcher.
package binaryproto

import (
	"github.com/m-lab/memcache-info/stream"
	"github.com/m-lab/memcache-info/wire"
)

// Connection is one binary-protocol session. At most one request/response
// round-trip is in flight at a time, except for the internal multi-get
// pipeline, which is still strictly FIFO on the wire.
type Connection struct {
	s        *stream.Stream
	addr     string
	opaque   *wire.OpaqueSource
	poisoned bool
}

// New wraps s as a binary-protocol connection to the server named addr.
func New(s *stream.Stream, addr string) *Connection {
	return &Connection{s: s, addr: addr, opaque: wire.NewOpaqueSource()}
}

// Address implements wire.Conn.
func (c *Connection) Address() string { return c.addr }

// Poisoned implements wire.Conn.
func (c *Connection) Poisoned() bool { return c.poisoned }

func (c *Connection) fail(err error) error {
	c.poisoned = true
	return err
}

// sendRequest writes a request packet: header + extras + key + value.
func (c *Connection) sendRequest(opcode uint8, vbucket uint16, cas uint64, extras, key, value []byte) (uint32, error) {
	op := c.opaque.Next()
	h := wire.Header{
		Magic:           wire.MagicRequest,
		Opcode:          opcode,
		KeyLen:          uint16(len(key)),
		ExtraLen:        uint8(len(extras)),
		DataType:        0,
		StatusOrVBucket: vbucket,
		BodyLen:         uint32(len(extras) + len(key) + len(value)),
		Opaque:          op,
		CAS:             cas,
	}
	buf := h.Pack()
	buf = append(buf, extras...)
	buf = append(buf, key...)
	buf = append(buf, value...)
	if err := c.s.WriteAll(buf); err != nil {
		return op, c.fail(err)
	}
	return op, nil
}

// readResponse reads one header and its body, returning the header and the
// (extras, key, value) slices from the body.
func (c *Connection) readResponse() (wire.Header, []byte, []byte, []byte, error) {
	hbuf, err := c.s.ReadExact(wire.HeaderLen)
	if err != nil {
		return wire.Header{}, nil, nil, nil, c.fail(err)
	}
	h := wire.UnpackHeader(hbuf)
	body, err := c.s.ReadExact(int(h.BodyLen))
	if err != nil {
		return h, nil, nil, nil, c.fail(err)
	}
	extras := body[:h.ExtraLen]
	key := body[h.ExtraLen : int(h.ExtraLen)+int(h.KeyLen)]
	value := body[int(h.ExtraLen)+int(h.KeyLen):]
	return h, extras, key, value, nil
}

func extras8(flags, exptime uint32) []byte {
	buf := make([]byte, 8)
	off := wire.PutUint32(buf, 0, flags)
	wire.PutUint32(buf, off, exptime)
	return buf
}

// store issues Set/Add/Replace/Append/Prepend. Append/Prepend carry no
// extras. noreply is advisory on the binary path: the response header is
// always read back (spec §4.6).
func (c *Connection) store(opcode uint8, key string, data []byte, cas uint64, flags, exptime uint32, withExtras bool) (wire.OpResult, error) {
	var extras []byte
	if withExtras {
		extras = extras8(flags, exptime)
	}
	if _, err := c.sendRequest(opcode, 0, cas, extras, []byte(key), data); err != nil {
		return wire.OpResult{Status: wire.NetworkError}, err
	}
	h, _, _, _, err := c.readResponse()
	if err != nil {
		return wire.OpResult{Status: wire.NetworkError}, err
	}
	status := wire.FromBinaryCode(h.StatusOrVBucket)
	if status != wire.Success {
		return wire.OpResult{Status: status}, nil
	}
	return wire.OpResult{Status: status, Value: h.CAS}, nil
}

// Set implements wire.Conn. A non-zero cas makes this semantically a CAS
// store; the facade may surface both.
func (c *Connection) Set(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpSet, key, data, cas, flags, exptime, true)
}

// Cas implements wire.Conn.
func (c *Connection) Cas(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpSet, key, data, cas, flags, exptime, true)
}

// Add implements wire.Conn. Whether the server honors a non-zero cas on
// Add/Replace is server-dependent; the parameter is passed through
// verbatim and not validated here (spec §9 open question (a)).
func (c *Connection) Add(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpAdd, key, data, cas, flags, exptime, true)
}

// Replace implements wire.Conn.
func (c *Connection) Replace(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpReplace, key, data, cas, flags, exptime, true)
}

// Append implements wire.Conn. No extras on the wire.
func (c *Connection) Append(key string, data []byte, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpAppend, key, data, 0, 0, 0, false)
}

// Prepend implements wire.Conn.
func (c *Connection) Prepend(key string, data []byte, noreply bool) (wire.OpResult, error) {
	return c.store(wire.OpPrepend, key, data, 0, 0, 0, false)
}

// Touch implements wire.Conn.
func (c *Connection) Touch(key string, exptime uint32, noreply bool) (wire.Status, error) {
	extras := make([]byte, 4)
	wire.PutUint32(extras, 0, exptime)
	if _, err := c.sendRequest(wire.OpTouch, 0, 0, extras, []byte(key), nil); err != nil {
		return wire.NetworkError, err
	}
	h, _, _, _, err := c.readResponse()
	if err != nil {
		return wire.NetworkError, err
	}
	return wire.FromBinaryCode(h.StatusOrVBucket), nil
}

// incrDecr issues Increment/Decrement. exptime == 0xFFFFFFFF tells the
// server not to create a missing key; otherwise a miss is created with
// initial. The client passes exptime through verbatim to implement that
// policy (spec §4.6).
func (c *Connection) incrDecr(opcode uint8, key string, amount, initial uint64, exptime uint32) (wire.OpResult, error) {
	extras := make([]byte, 20)
	off := wire.PutUint64(extras, 0, amount)
	off = wire.PutUint64(extras, off, initial)
	wire.PutUint32(extras, off, exptime)
	if _, err := c.sendRequest(opcode, 0, 0, extras, []byte(key), nil); err != nil {
		return wire.OpResult{Status: wire.NetworkError}, err
	}
	h, _, _, value, err := c.readResponse()
	if err != nil {
		return wire.OpResult{Status: wire.NetworkError}, err
	}
	status := wire.FromBinaryCode(h.StatusOrVBucket)
	if status != wire.Success || len(value) != 8 {
		return wire.OpResult{Status: status}, nil
	}
	return wire.OpResult{Status: status, Value: wire.Uint64(value, 0)}, nil
}

// Incr implements wire.Conn.
func (c *Connection) Incr(key string, amount, initial uint64, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.incrDecr(wire.OpIncrement, key, amount, initial, exptime)
}

// Decr implements wire.Conn.
func (c *Connection) Decr(key string, amount, initial uint64, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.incrDecr(wire.OpDecrement, key, amount, initial, exptime)
}

// Delete implements wire.Conn.
func (c *Connection) Delete(key string, noreply bool) (wire.Status, error) {
	if _, err := c.sendRequest(wire.OpDelete, 0, 0, nil, []byte(key), nil); err != nil {
		return wire.NetworkError, err
	}
	h, _, _, _, err := c.readResponse()
	if err != nil {
		return wire.NetworkError, err
	}
	return wire.FromBinaryCode(h.StatusOrVBucket), nil
}

// Get implements wire.Conn via the pipelined multi-get (see Gets).
func (c *Connection) Get(keys []string) ([]wire.CachedItem, error) {
	return c.multiGet(keys)
}

// Gets implements wire.Conn. The binary protocol always returns CAS in
// the header, so Get and Gets are identical on this path.
func (c *Connection) Gets(keys []string) ([]wire.CachedItem, error) {
	return c.multiGet(keys)
}

// multiGet emits N-1 quiet GetKQ requests followed by one GetK terminator,
// then reads responses in order, relying on ordering and the terminator
// opcode rather than opaque for correlation (spec §4.6/§9 open question).
func (c *Connection) multiGet(keys []string) ([]wire.CachedItem, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	for _, k := range keys[:len(keys)-1] {
		if _, err := c.sendRequest(wire.OpGetKQ, 0, 0, nil, []byte(k), nil); err != nil {
			return nil, err
		}
	}
	last := keys[len(keys)-1]
	if _, err := c.sendRequest(wire.OpGetK, 0, 0, nil, []byte(last), nil); err != nil {
		return nil, err
	}

	var items []wire.CachedItem
	for {
		h, extras, key, value, err := c.readResponse()
		if err != nil {
			return items, err
		}
		status := wire.FromBinaryCode(h.StatusOrVBucket)
		if status == wire.Success {
			var flags uint32
			if len(extras) == 4 {
				flags = wire.Uint32(extras, 0)
			}
			k := string(key)
			if k == "" {
				k = last
			}
			data := make([]byte, len(value))
			copy(data, value)
			items = append(items, wire.CachedItem{Key: k, Data: data, CAS: h.CAS, Flags: flags})
		}
		if h.Opcode == wire.OpGetK {
			return items, nil
		}
	}
}

// Version implements wire.Conn.
func (c *Connection) Version() (string, error) {
	if _, err := c.sendRequest(wire.OpVersion, 0, 0, nil, nil, nil); err != nil {
		return "", err
	}
	_, _, _, value, err := c.readResponse()
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Verbosity implements wire.Conn.
func (c *Connection) Verbosity(level uint32, noreply bool) (wire.Status, error) {
	extras := make([]byte, 4)
	wire.PutUint32(extras, 0, level)
	if _, err := c.sendRequest(wire.OpVerbosity, 0, 0, extras, nil, nil); err != nil {
		return wire.NetworkError, err
	}
	h, _, _, _, err := c.readResponse()
	if err != nil {
		return wire.NetworkError, err
	}
	return wire.FromBinaryCode(h.StatusOrVBucket), nil
}

// Flush implements wire.Conn.
func (c *Connection) Flush(delay uint32, noreply bool) (wire.Status, error) {
	extras := make([]byte, 4)
	wire.PutUint32(extras, 0, delay)
	if _, err := c.sendRequest(wire.OpFlush, 0, 0, extras, nil, nil); err != nil {
		return wire.NetworkError, err
	}
	h, _, _, _, err := c.readResponse()
	if err != nil {
		return wire.NetworkError, err
	}
	return wire.FromBinaryCode(h.StatusOrVBucket), nil
}

// Stats implements wire.Conn: issues Stat, reads headers until one carries
// key_len == 0 and a zero-length value.
func (c *Connection) Stats() ([]wire.StatEntry, error) {
	if _, err := c.sendRequest(wire.OpStat, 0, 0, nil, nil, nil); err != nil {
		return nil, err
	}
	var entries []wire.StatEntry
	for {
		h, _, key, value, err := c.readResponse()
		if err != nil {
			return entries, err
		}
		if h.KeyLen == 0 && h.ValueLen() == 0 {
			return entries, nil
		}
		entries = append(entries, wire.StatEntry{Name: string(key), Value: string(value)})
	}
}

// Quit implements wire.Conn: issues Quit and reads the single response
// header. It does not close the stream.
func (c *Connection) Quit() error {
	if _, err := c.sendRequest(wire.OpQuit, 0, 0, nil, nil, nil); err != nil {
		return err
	}
	_, _, _, _, err := c.readResponse()
	return err
}

