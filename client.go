package memcache

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m-lab/memcache-info/addr"
	"github.com/m-lab/memcache-info/binaryproto"
	"github.com/m-lab/memcache-info/metrics"
	"github.com/m-lab/memcache-info/rcache"
	"github.com/m-lab/memcache-info/router"
	"github.com/m-lab/memcache-info/stream"
	"github.com/m-lab/memcache-info/textproto"
	"github.com/m-lab/memcache-info/wire"
)

// Client is an ordered pool of Connections plus pool-wide configuration.
// Indices are stable for the Client's lifetime and are what the shard
// function routes against. The Client exclusively owns its Connections.
type Client struct {
	conns []wire.Conn
	mus   []sync.Mutex
	cfg   config
	cache *rcache.Cache
}

func protocolLabel(p Protocol) string {
	if p == Text {
		return "text"
	}
	return "binary"
}

// deadlineConn wraps a net.Conn so that every Read/Write call refreshes a
// rolling deadline. Expiry surfaces to the caller as an I/O error, which
// the protocol connections map to NetworkError and use to poison
// themselves, per the concurrency model's timeout rule.
type deadlineConn struct {
	net.Conn
	d time.Duration
}

func (d deadlineConn) Read(p []byte) (int, error) {
	if d.d > 0 {
		d.Conn.SetDeadline(time.Now().Add(d.d))
	}
	return d.Conn.Read(p)
}

func (d deadlineConn) Write(p []byte) (int, error) {
	if d.d > 0 {
		d.Conn.SetDeadline(time.Now().Add(d.d))
	}
	return d.Conn.Write(p)
}

func dial(a addr.ServerAddress, cfg config) (wire.Conn, error) {
	netConn, err := net.DialTimeout("tcp", a.String(), cfg.dialTimeout)
	if err != nil {
		return nil, err
	}
	wrapped := deadlineConn{Conn: netConn, d: cfg.deadline}
	s := stream.New(wrapped)
	if cfg.protocol == Text {
		return textproto.New(s, a.String()), nil
	}
	return binaryproto.New(s, a.String()), nil
}

// Connect parses the whitespace-separated server list, builds one
// Connection per address using the configured protocol, and records pool
// configuration.
func Connect(servers string, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	addrs := addr.ParseServerList(servers)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("memcache: empty server list %q", servers)
	}
	conns := make([]wire.Conn, len(addrs))
	for i, a := range addrs {
		c, err := dial(a, cfg)
		if err != nil {
			for j := 0; j < i; j++ {
				conns[j].Quit()
			}
			return nil, fmt.Errorf("memcache: connecting to %s: %w", a.String(), err)
		}
		conns[i] = c
		metrics.PoolConnectionsGauge.With(prometheus.Labels{"server": a.String()}).Set(1)
	}
	var cache *rcache.Cache
	if cfg.cacheEnabled {
		cache = rcache.New(cfg.cacheCap)
	}
	return &Client{conns: conns, mus: make([]sync.Mutex, len(conns)), cfg: cfg, cache: cache}, nil
}

// Quit sends `quit` on each connection, swallowing network errors during
// shutdown (best-effort, per spec). It does not close the underlying
// network connections. It returns one
// result per pooled connection, in pool order: Success if the quit round
// trip completed cleanly, NetworkError otherwise.
func (cl *Client) Quit() []Status {
	out := make([]Status, len(cl.conns))
	for i, c := range cl.conns {
		cl.mus[i].Lock()
		if err := c.Quit(); err != nil {
			out[i] = wire.NetworkError
		} else {
			out[i] = wire.Success
		}
		cl.mus[i].Unlock()
	}
	return out
}

func (cl *Client) observe(op string, protocol Protocol, status wire.Status, start time.Time) {
	metrics.OpLatencyHistogram.With(prometheus.Labels{"op": op, "protocol": protocolLabel(protocol)}).Observe(time.Since(start).Seconds())
	metrics.OpStatusCounter.With(prometheus.Labels{"op": op, "status": status.String()}).Inc()
}

func (cl *Client) connIndexFor(key string) int {
	return router.IndexOf(key, len(cl.conns))
}

func (cl *Client) poisonCheck(idx int) {
	if cl.conns[idx].Poisoned() {
		metrics.PoolConnectionsGauge.With(prometheus.Labels{"server": cl.conns[idx].Address()}).Set(0)
	}
}

func (cl *Client) invalidate(key string) {
	if cl.cache != nil {
		cl.cache.Invalidate(key)
	}
}

// dispatchStore routes key to its connection, locks it for the duration of
// the call, and records metrics.
func (cl *Client) dispatchStore(op, key string, fn func(wire.Conn) (wire.OpResult, error)) (OpResult, error) {
	idx := cl.connIndexFor(key)
	cl.mus[idx].Lock()
	defer cl.mus[idx].Unlock()
	start := time.Now()
	res, err := fn(cl.conns[idx])
	cl.poisonCheck(idx)
	cl.observe(op, cl.cfg.protocol, res.Status, start)
	cl.invalidate(key)
	return res, err
}

// Set implements the storage op `set`.
func (cl *Client) Set(key string, data []byte, cas uint64, flags, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("set", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Set(key, data, cas, flags, exptime, false)
	})
}

// Cas implements the storage op `cas`.
func (cl *Client) Cas(key string, data []byte, cas uint64, flags, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("cas", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Cas(key, data, cas, flags, exptime, false)
	})
}

// Add implements the storage op `add`. On the binary protocol a non-zero
// cas is sent in the request header and whether it is honored is
// server-dependent (spec §9 open question (a)); the text protocol's `add`
// line has no CAS field, so cas is not sent there.
func (cl *Client) Add(key string, data []byte, cas uint64, flags, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("add", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Add(key, data, cas, flags, exptime, false)
	})
}

// Replace implements the storage op `replace`.
func (cl *Client) Replace(key string, data []byte, cas uint64, flags, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("replace", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Replace(key, data, cas, flags, exptime, false)
	})
}

// Append implements the storage op `append`.
func (cl *Client) Append(key string, data []byte) (OpResult, error) {
	return cl.dispatchStore("append", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Append(key, data, false)
	})
}

// Prepend implements the storage op `prepend`.
func (cl *Client) Prepend(key string, data []byte) (OpResult, error) {
	return cl.dispatchStore("prepend", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Prepend(key, data, false)
	})
}

// Incr implements `incr`. On the text protocol, initial and exptime are
// ignored (spec §4.5, §9 open question (c)).
func (cl *Client) Incr(key string, amount, initial uint64, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("incr", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Incr(key, amount, initial, exptime, false)
	})
}

// Decr implements `decr`. See Incr for the text-protocol caveat.
func (cl *Client) Decr(key string, amount, initial uint64, exptime uint32) (OpResult, error) {
	return cl.dispatchStore("decr", key, func(c wire.Conn) (wire.OpResult, error) {
		return c.Decr(key, amount, initial, exptime, false)
	})
}

// Touch implements `touch`.
func (cl *Client) Touch(key string, exptime uint32) (Status, error) {
	idx := cl.connIndexFor(key)
	cl.mus[idx].Lock()
	defer cl.mus[idx].Unlock()
	start := time.Now()
	status, err := cl.conns[idx].Touch(key, exptime, false)
	cl.poisonCheck(idx)
	cl.observe("touch", cl.cfg.protocol, status, start)
	cl.invalidate(key)
	return status, err
}

// Delete implements `delete`.
func (cl *Client) Delete(key string) (Status, error) {
	idx := cl.connIndexFor(key)
	cl.mus[idx].Lock()
	defer cl.mus[idx].Unlock()
	start := time.Now()
	status, err := cl.conns[idx].Delete(key, false)
	cl.poisonCheck(idx)
	cl.observe("delete", cl.cfg.protocol, status, start)
	cl.invalidate(key)
	return status, err
}

// GetItem issues a single-key multi-get and returns the first element, or
// nil if the key was absent or the request failed. A read-through cache
// hit, if enabled, skips the round trip entirely.
func (cl *Client) GetItem(key string) (*CachedItem, error) {
	if cl.cache != nil {
		if item, ok := cl.cache.Get(key); ok {
			return &item, nil
		}
	}
	items, err := cl.GetBulk([]string{key})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	item := items[0]
	if cl.cache != nil {
		cl.cache.Put(item)
	}
	return &item, nil
}

// GetBulk fans out a multi-key read. When the pool has a single
// connection, the whole key list is forwarded directly. Otherwise keys are
// partitioned by router.Distribute and one multi-get issued per non-empty
// partition, concurrently, then merged; the order of returned items is
// unspecified.
func (cl *Client) GetBulk(keys []string) ([]CachedItem, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	n := len(cl.conns)
	if n == 1 {
		cl.mus[0].Lock()
		defer cl.mus[0].Unlock()
		start := time.Now()
		items, err := cl.conns[0].Gets(keys)
		cl.poisonCheck(0)
		status := wire.Success
		if err != nil {
			status = wire.NetworkError
		}
		cl.observe("get_bulk", cl.cfg.protocol, status, start)
		metrics.MultiGetFanoutHistogram.Observe(1)
		return items, err
	}

	partitions := router.Distribute(keys, n)
	type result struct {
		items []CachedItem
		err   error
	}
	results := make([]result, n)
	var wg sync.WaitGroup
	touched := 0
	for i, part := range partitions {
		if len(part) == 0 {
			continue
		}
		touched++
		wg.Add(1)
		go func(idx int, keys []string) {
			defer wg.Done()
			cl.mus[idx].Lock()
			defer cl.mus[idx].Unlock()
			start := time.Now()
			items, err := cl.conns[idx].Gets(keys)
			cl.poisonCheck(idx)
			status := wire.Success
			if err != nil {
				status = wire.NetworkError
			}
			cl.observe("get_bulk", cl.cfg.protocol, status, start)
			results[idx] = result{items: items, err: err}
		}(i, part)
	}
	wg.Wait()
	metrics.MultiGetFanoutHistogram.Observe(float64(touched))

	var all []CachedItem
	for _, r := range results {
		all = append(all, r.items...)
	}
	return all, nil
}

// Flush applies `flush_all` to every connection and returns a
// per-connection result list in pool order.
func (cl *Client) Flush(delay uint32) []Status {
	out := make([]Status, len(cl.conns))
	for i, c := range cl.conns {
		cl.mus[i].Lock()
		status, _ := c.Flush(delay, false)
		cl.poisonCheck(i)
		cl.mus[i].Unlock()
		out[i] = status
	}
	return out
}

// Verbosity applies `verbosity` to every connection.
func (cl *Client) Verbosity(level uint32) []Status {
	out := make([]Status, len(cl.conns))
	for i, c := range cl.conns {
		cl.mus[i].Lock()
		status, _ := c.Verbosity(level, false)
		cl.poisonCheck(i)
		cl.mus[i].Unlock()
		out[i] = status
	}
	return out
}

// Stats applies `stats` to every connection and returns a per-connection
// list of StatEntry, in pool order.
func (cl *Client) Stats() [][]StatEntry {
	out := make([][]StatEntry, len(cl.conns))
	for i, c := range cl.conns {
		cl.mus[i].Lock()
		entries, _ := c.Stats()
		cl.poisonCheck(i)
		cl.mus[i].Unlock()
		out[i] = entries
	}
	return out
}

// Version applies `version` to every connection and returns a
// per-connection version string, in pool order.
func (cl *Client) Version() []string {
	out := make([]string, len(cl.conns))
	for i, c := range cl.conns {
		cl.mus[i].Lock()
		v, _ := c.Version()
		cl.poisonCheck(i)
		cl.mus[i].Unlock()
		out[i] = v
	}
	return out
}
