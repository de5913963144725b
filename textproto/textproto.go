// Package textproto implements the memcached line-oriented text protocol:
// request formatting, response parsing, and the per-connection dispatcher.
package textproto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m-lab/memcache-info/stream"
	"github.com/m-lab/memcache-info/wire"
)

// Connection is one text-protocol session. At most one request/response
// round-trip is in flight at a time; callers must serialize access.
type Connection struct {
	s        *stream.Stream
	addr     string
	poisoned bool
}

// New wraps s as a text-protocol connection to the server named addr (used
// only for logging/reporting, not for dialing — socket construction is the
// caller's responsibility).
func New(s *stream.Stream, addr string) *Connection {
	return &Connection{s: s, addr: addr}
}

// Address implements wire.Conn.
func (c *Connection) Address() string { return c.addr }

// Poisoned implements wire.Conn.
func (c *Connection) Poisoned() bool { return c.poisoned }

func (c *Connection) fail(err error) error {
	c.poisoned = true
	return err
}

// store issues one of set/add/replace/append/prepend/cas.
func (c *Connection) store(op, key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	var line string
	if op == "cas" {
		line = fmt.Sprintf("cas %s %d %d %d %d", key, flags, exptime, len(data), cas)
	} else {
		line = fmt.Sprintf("%s %s %d %d %d", op, key, flags, exptime, len(data))
	}
	if noreply {
		line += " noreply"
	}
	line += "\r\n"

	if err := c.s.WriteAll([]byte(line)); err != nil {
		return wire.OpResult{Status: wire.NetworkError}, c.fail(err)
	}
	if err := c.s.WriteAll(data); err != nil {
		return wire.OpResult{Status: wire.NetworkError}, c.fail(err)
	}
	if err := c.s.WriteAll([]byte("\r\n")); err != nil {
		return wire.OpResult{Status: wire.NetworkError}, c.fail(err)
	}
	if noreply {
		return wire.OpResult{Status: wire.Success}, nil
	}

	reply, err := c.s.ReadLine()
	if err != nil {
		return wire.OpResult{Status: wire.NetworkError}, c.fail(err)
	}
	token := firstToken(reply)
	// Text storage replies never carry a CAS (spec: text CAS returned on
	// store is always 0).
	return wire.OpResult{Status: wire.FromTextToken(token), Value: 0}, nil
}

// Set implements wire.Conn.
func (c *Connection) Set(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store("set", key, data, cas, flags, exptime, noreply)
}

// Cas implements wire.Conn.
func (c *Connection) Cas(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store("cas", key, data, cas, flags, exptime, noreply)
}

// Add implements wire.Conn.
func (c *Connection) Add(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store("add", key, data, cas, flags, exptime, noreply)
}

// Replace implements wire.Conn.
func (c *Connection) Replace(key string, data []byte, cas uint64, flags, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.store("replace", key, data, cas, flags, exptime, noreply)
}

// Append implements wire.Conn. Append/prepend have no flags/exptime on the
// wire; zero is sent in their place per the protocol grammar.
func (c *Connection) Append(key string, data []byte, noreply bool) (wire.OpResult, error) {
	return c.store("append", key, data, 0, 0, 0, noreply)
}

// Prepend implements wire.Conn.
func (c *Connection) Prepend(key string, data []byte, noreply bool) (wire.OpResult, error) {
	return c.store("prepend", key, data, 0, 0, 0, noreply)
}

// scalarLine issues touch/incr/decr/delete/verbosity/flush_all, each a single
// CRLF-terminated line with optional noreply, and maps the single-line
// reply to a Status.
func (c *Connection) scalarLine(line string, noreply bool) (wire.Status, string, error) {
	if noreply {
		line += " noreply"
	}
	line += "\r\n"
	if err := c.s.WriteAll([]byte(line)); err != nil {
		return wire.NetworkError, "", c.fail(err)
	}
	if noreply {
		return wire.Success, "", nil
	}
	reply, err := c.s.ReadLine()
	if err != nil {
		return wire.NetworkError, "", c.fail(err)
	}
	return wire.FromTextToken(firstToken(reply)), reply, nil
}

// Touch implements wire.Conn.
func (c *Connection) Touch(key string, exptime uint32, noreply bool) (wire.Status, error) {
	status, _, err := c.scalarLine(fmt.Sprintf("touch %s %d", key, exptime), noreply)
	return status, err
}

// Incr implements wire.Conn. The text protocol does not emulate an
// initial value on miss; initial and exptime are accepted for API parity
// with the binary path but ignored here, per spec.
func (c *Connection) Incr(key string, amount, initial uint64, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.incrDecr("incr", key, amount, noreply)
}

// Decr implements wire.Conn. See Incr for the initial-value caveat.
func (c *Connection) Decr(key string, amount, initial uint64, exptime uint32, noreply bool) (wire.OpResult, error) {
	return c.incrDecr("decr", key, amount, noreply)
}

func (c *Connection) incrDecr(op, key string, amount uint64, noreply bool) (wire.OpResult, error) {
	status, reply, err := c.scalarLine(fmt.Sprintf("%s %s %d", op, key, amount), noreply)
	if err != nil || noreply {
		return wire.OpResult{Status: status}, err
	}
	// On success the whole line IS the new value, not a status token.
	if v, perr := strconv.ParseUint(strings.TrimSpace(reply), 10, 64); perr == nil {
		return wire.OpResult{Status: wire.Success, Value: v}, nil
	}
	if status != wire.Success {
		// A non-numeric first token (e.g. "NOT_FOUND") already mapped to
		// a Status above; nothing more to parse.
		return wire.OpResult{Status: status}, nil
	}
	return wire.OpResult{Status: wire.UnknownResponse}, nil
}

// Delete implements wire.Conn.
func (c *Connection) Delete(key string, noreply bool) (wire.Status, error) {
	status, _, err := c.scalarLine(fmt.Sprintf("delete %s", key), noreply)
	return status, err
}

// Get implements wire.Conn (no CAS in response).
func (c *Connection) Get(keys []string) ([]wire.CachedItem, error) {
	return c.retrieve("get", keys)
}

// Gets implements wire.Conn (CAS present in response).
func (c *Connection) Gets(keys []string) ([]wire.CachedItem, error) {
	return c.retrieve("gets", keys)
}

func (c *Connection) retrieve(op string, keys []string) ([]wire.CachedItem, error) {
	line := op + " " + strings.Join(keys, " ") + "\r\n"
	if err := c.s.WriteAll([]byte(line)); err != nil {
		return nil, c.fail(err)
	}
	var items []wire.CachedItem
	for {
		reply, err := c.s.ReadLine()
		if err != nil {
			return nil, c.fail(err)
		}
		if reply == "END" {
			return items, nil
		}
		item, err := parseValueLine(reply)
		if err != nil {
			return items, err
		}
		data, err := c.s.ReadExact(len(item.Data))
		if err != nil {
			return items, c.fail(err)
		}
		item.Data = data
		if _, err := c.s.ReadExact(2); err != nil { // trailing CRLF
			return items, c.fail(err)
		}
		items = append(items, item)
	}
}

// parseValueLine parses "VALUE <key> <flags> <bytes>[ <cas>]". The
// returned CachedItem.Data is a placeholder slice of the declared length;
// callers must read that many bytes from the stream next.
func parseValueLine(line string) (wire.CachedItem, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || fields[0] != "VALUE" {
		return wire.CachedItem{}, fmt.Errorf("textproto: unexpected reply %q", line)
	}
	flags, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return wire.CachedItem{}, fmt.Errorf("textproto: bad flags in %q", line)
	}
	n, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return wire.CachedItem{}, fmt.Errorf("textproto: bad length in %q", line)
	}
	var cas uint64
	if len(fields) >= 5 {
		cas, err = strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return wire.CachedItem{}, fmt.Errorf("textproto: bad cas in %q", line)
		}
	}
	return wire.CachedItem{
		Key:   fields[1],
		Data:  make([]byte, n),
		CAS:   cas,
		Flags: uint32(flags),
	}, nil
}

// Version implements wire.Conn.
func (c *Connection) Version() (string, error) {
	if err := c.s.WriteAll([]byte("version\r\n")); err != nil {
		return "", c.fail(err)
	}
	reply, err := c.s.ReadLine()
	if err != nil {
		return "", c.fail(err)
	}
	return strings.TrimPrefix(reply, "VERSION "), nil
}

// Verbosity implements wire.Conn.
func (c *Connection) Verbosity(level uint32, noreply bool) (wire.Status, error) {
	status, _, err := c.scalarLine(fmt.Sprintf("verbosity %d", level), noreply)
	return status, err
}

// Flush implements wire.Conn.
func (c *Connection) Flush(delay uint32, noreply bool) (wire.Status, error) {
	status, _, err := c.scalarLine(fmt.Sprintf("flush_all %d", delay), noreply)
	return status, err
}

// Stats implements wire.Conn: reads "STAT <name> <value>" lines until END.
func (c *Connection) Stats() ([]wire.StatEntry, error) {
	if err := c.s.WriteAll([]byte("stats\r\n")); err != nil {
		return nil, c.fail(err)
	}
	var entries []wire.StatEntry
	for {
		reply, err := c.s.ReadLine()
		if err != nil {
			return nil, c.fail(err)
		}
		if reply == "END" {
			return entries, nil
		}
		fields := strings.SplitN(reply, " ", 3)
		if len(fields) != 3 || fields[0] != "STAT" {
			continue
		}
		entries = append(entries, wire.StatEntry{Name: fields[1], Value: fields[2]})
	}
}

// Quit implements wire.Conn. Errors during quit are the caller's concern
// to swallow; Quit itself reports them.
func (c *Connection) Quit() error {
	return c.s.WriteAll([]byte("quit\r\n"))
}

func firstToken(line string) string {
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		return line[:idx]
	}
	return line
}
