package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records cart mutation and snapshot propagation activity.
type SyncMetrics struct {
	mutations     *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	staleWrites   *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Successful cart mutations by operation.",
	}, []string{"op"})
	writeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_snapshot_write_failures_total",
		Help: "Snapshot writes that failed, by target.",
	}, []string{"target"})
	staleWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_snapshot_stale_discards_total",
		Help: "Snapshot writes discarded because a newer revision superseded them.",
	}, []string{"target"})
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_snapshot_write_duration_seconds",
		Help:    "Duration of snapshot writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
	reg.MustRegister(mutations, writeFailures, staleWrites, writeDuration)
	return &SyncMetrics{
		mutations:     mutations,
		writeFailures: writeFailures,
		staleWrites:   staleWrites,
		writeDuration: writeDuration,
	}
}

// IncMutation counts one successful mutation of the named operation.
func (m *SyncMetrics) IncMutation(op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncWriteFailure counts a failed snapshot write for the target (local, remote).
func (m *SyncMetrics) IncWriteFailure(target string) {
	if m == nil || m.writeFailures == nil {
		return
	}
	m.writeFailures.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncStaleDiscard counts a snapshot dropped in favour of a newer revision.
func (m *SyncMetrics) IncStaleDiscard(target string) {
	if m == nil || m.staleWrites == nil {
		return
	}
	m.staleWrites.WithLabelValues(normalizeLabel(target)).Inc()
}

// ObserveWrite records how long a snapshot write took.
func (m *SyncMetrics) ObserveWrite(target string, duration time.Duration) {
	if m == nil || m.writeDuration == nil {
		return
	}
	m.writeDuration.WithLabelValues(normalizeLabel(target)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
