package wire

import "sync/atomic"

// OpaqueSource hands out a per-connection sequence of opaque values for the
// binary header's diagnostic opaque field. The multi-get pipeline never
// relies on these for correlation (see Connection docs); they exist purely
// so a request can be matched to its response in logs.
type OpaqueSource struct {
	next uint32
}

// NewOpaqueSource returns a source starting at 1 (0 is reserved to mean
// "unset" in logs).
func NewOpaqueSource() *OpaqueSource {
	return &OpaqueSource{next: 0}
}

// Next returns the next opaque value, monotonically increasing.
func (s *OpaqueSource) Next() uint32 {
	return atomic.AddUint32(&s.next, 1)
}
