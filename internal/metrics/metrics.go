// Package metrics exposes Prometheus collectors for the live tail and an
// optional /metrics listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trawl"

// Page fetch results.
const (
	PageOK        = "ok"
	PageExhausted = "exhausted"
	PageEmpty     = "empty"
	PageError     = "error"
	PageRejected  = "rejected"
	PageStale     = "stale"
)

var (
	EntriesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_appended_total",
		Help:      "Live entries appended to the buffer",
	})

	EntriesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_evicted_total",
		Help:      "Entries evicted from the buffer head by live traffic",
	})

	EntriesPrepended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_prepended_total",
		Help:      "Older entries prepended from backward fetches",
	})

	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_frames_total",
		Help:      "Live-feed frames dropped because they could not be decoded",
	})

	OrderViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_violations_total",
		Help:      "Buffer operations aborted because they would break id order",
	}, []string{"op"})

	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Backward page fetches by result",
	}, []string{"result"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of backward page fetches",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	BufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "buffer_entries",
		Help:      "Entries currently held in the buffer",
	})

	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connection_state",
		Help:      "Live feed state: 0 disconnected, 1 connecting, 2 connected",
	})

	Connections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_total",
		Help:      "Live feed connection attempts by outcome",
	}, []string{"outcome"})
)
