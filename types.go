package memcache

import "github.com/m-lab/memcache-info/wire"

// Status is the unified response status taxonomy (see wire.Status).
type Status = wire.Status

// Status values, re-exported for callers who only import this package.
const (
	Success               = wire.Success
	KeyNotFound           = wire.KeyNotFound
	KeyExists             = wire.KeyExists
	ValueTooLarge         = wire.ValueTooLarge
	InvalidArguments      = wire.InvalidArguments
	ItemNotStored         = wire.ItemNotStored
	NonNumericValue       = wire.NonNumericValue
	VBucketBelongsAnother = wire.VBucketBelongsAnother
	AuthError             = wire.AuthError
	AuthContinue          = wire.AuthContinue
	UnknownCommand        = wire.UnknownCommand
	OutOfMemory           = wire.OutOfMemory
	NotSupported          = wire.NotSupported
	InternalError         = wire.InternalError
	Busy                  = wire.Busy
	TemporaryFailure      = wire.TemporaryFailure
	NetworkError          = wire.NetworkError
	UnknownResponse       = wire.UnknownResponse
	NotImplemented        = wire.NotImplemented
)

// CachedItem is a single retrieved value plus its metadata.
type CachedItem = wire.CachedItem

// OpResult is the (status, value) pair returned by mutation operations.
type OpResult = wire.OpResult

// StatEntry is a single (name, value) pair from the `stats` command.
type StatEntry = wire.StatEntry

// Protocol selects the wire protocol a Client's connections speak.
type Protocol int

// Supported protocols. Binary is the default (see Options).
const (
	Binary Protocol = iota
	Text
)

// ShardMethod selects the key-to-connection routing function. md5_mod
// (router.IndexOf) is the only method defined by this spec.
type ShardMethod int

// Supported shard methods.
const (
	ShardMD5Mod ShardMethod = iota
)
