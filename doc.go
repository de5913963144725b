// Package memcache is a client library for a distributed in-memory
// key/value cache service (memcached-compatible). It maps a high-level
// key/value API onto one or more TCP connections to cache servers,
// supporting both the line-oriented text protocol and the length-prefixed
// binary protocol, and performs consistent request routing across a
// server pool.
package memcache
