// Package metrics defines prometheus metric types and provides convenience
// accounting for the memcache client.
//
// When defining new operations or metrics, these are helpful values to
// track:
//  - things coming into or go out of the system: requests, connections, bulk fanout.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpLatencyHistogram tracks per-operation latency in seconds, broken
	// down by operation name and wire protocol.
	OpLatencyHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "memcache_op_latency_seconds",
			Help: "memcache client operation latency distribution (seconds)",
			Buckets: []float64{
				0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005,
				0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
			},
		},
		[]string{"op", "protocol"})

	// OpStatusCounter counts completed operations by (op, status).
	//
	// Example usage:
	//   metrics.OpStatusCounter.With(prometheus.Labels{"op": "set", "status": "Success"}).Inc()
	OpStatusCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memcache_op_status_total",
			Help: "count of memcache client operations by resulting status",
		},
		[]string{"op", "status"})

	// PoolConnectionsGauge is 1 if a pooled connection is usable, 0 if it
	// has been poisoned.
	PoolConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memcache_pool_connection_up",
			Help: "1 if the pooled connection to a server is usable, 0 if poisoned",
		},
		[]string{"server"})

	// MultiGetFanoutHistogram tracks how many server partitions a single
	// get_bulk call touched.
	MultiGetFanoutHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memcache_multi_get_fanout",
			Help:    "number of server partitions touched per get_bulk call",
			Buckets: prometheus.LinearBuckets(1, 1, 16),
		},
	)
)

// init() prints a log message to let the user know that the package has
// been loaded and the metrics registered. The metrics are auto-registered,
// which means they are registered as soon as this package is loaded, and
// the exact time this occurs (and whether this occurs at all in a given
// context) can be opaque.
func init() {
	log.Println("Prometheus metrics in memcache-info.metrics are registered.")
}
