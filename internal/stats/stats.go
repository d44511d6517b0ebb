// Package stats exposes Prometheus counters and histograms for the
// Hyperion engine: packets/chunks sent and received, bytes transferred,
// and per-mode dispatch counts. The collectors are package-level: every
// Engine in the process updates the same counters, from whichever
// goroutine runs its Send/Receive, and there are no per-Engine counters.
// The underlying prometheus types are safe for concurrent updates and
// concurrent readers (scrape handlers).
package stats

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	packetsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "packets_sent_total",
			Help:      "Packets sent, labeled by dispatch mode.",
		},
		[]string{"mode"},
	)
	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "packets_received_total",
			Help:      "Packets received, labeled by dispatch mode.",
		},
		[]string{"mode"},
	)
	chunksSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "chunks_sent_total",
			Help:      "Individual chunk frames written to the wire.",
		},
	)
	chunksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "chunks_received_total",
			Help:      "Individual chunk frames read off the wire.",
		},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "bytes_sent_total",
			Help:      "Payload bytes sent, excluding framing overhead.",
		},
	)
	bytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "bytes_received_total",
			Help:      "Payload bytes received, excluding framing overhead.",
		},
	)
	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "send_duration_seconds",
			Help:      "Time to send one packet, labeled by dispatch mode.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hyperion",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Send/receive failures, labeled by error kind.",
		},
		[]string{"kind"},
	)
)

// Mode labels for the counters above; matches the dispatch package's
// three wire encodings.
const (
	ModeLightweight = "lightweight"
	ModeDirect      = "direct"
	ModeChunked     = "chunked"
)

// Register registers every collector with the default Prometheus
// registry. Safe to call repeatedly; registration happens once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			packetsSent, packetsReceived,
			chunksSent, chunksReceived,
			bytesSent, bytesReceived,
			sendDuration, errorsTotal,
		)
	})
}

// RecordSend records one completed Send of n payload bytes using the
// given mode and chunk count, taking d to complete.
func RecordSend(mode string, n int, chunks int, d time.Duration) {
	Register()
	packetsSent.WithLabelValues(mode).Inc()
	chunksSent.Add(float64(chunks))
	bytesSent.Add(float64(n))
	sendDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordReceive records one completed Receive of n payload bytes using
// the given mode and chunk count.
func RecordReceive(mode string, n int, chunks int) {
	Register()
	packetsReceived.WithLabelValues(mode).Inc()
	chunksReceived.Add(float64(chunks))
	bytesReceived.Add(float64(n))
}

// RecordError records one Send/Receive failure, labeled by the
// hyerr.Kind string of the failure.
func RecordError(kind string) {
	Register()
	errorsTotal.WithLabelValues(kind).Inc()
}
