package memcache

import "time"

// config holds the pool-wide configuration assembled from Options.
type config struct {
	protocol     Protocol
	shard        ShardMethod
	dialTimeout  time.Duration
	deadline     time.Duration
	cacheCap     int
	cacheEnabled bool
}

func defaultConfig() config {
	return config{
		protocol:    Binary,
		shard:       ShardMD5Mod,
		dialTimeout: 5 * time.Second,
	}
}

// Option configures a Client at construction time.
type Option func(*config)

// WithProtocol selects the wire protocol. Default is Binary.
func WithProtocol(p Protocol) Option {
	return func(c *config) { c.protocol = p }
}

// WithShard selects the routing function. md5_mod is the only method this
// spec defines; the option exists for API symmetry with the other knobs.
func WithShard(s ShardMethod) Option {
	return func(c *config) { c.shard = s }
}

// WithDialTimeout bounds how long Connect waits to establish each
// connection. Default is 5 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) { c.dialTimeout = d }
}

// WithDeadline sets a rolling read/write deadline on every pooled
// connection, refreshed on each individual Read and Write call (so a
// request made of several reads can take longer than d). Expiry surfaces as NetworkError and poisons the connection,
// per the concurrency model's timeout rule. Not set by default (no
// deadline).
func WithDeadline(d time.Duration) Option {
	return func(c *config) { c.deadline = d }
}

// WithReadThroughCache enables the optional client-side read-through cache
// for GetItem, with the given initial capacity hint. Off by default.
func WithReadThroughCache(capacity int) Option {
	return func(c *config) {
		c.cacheEnabled = true
		c.cacheCap = capacity
	}
}
