package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket set.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricTwoFactorRequired
	MetricTwoFactorSuccess
	MetricTwoFactorFailure
	MetricEnrollmentRequired
	MetricEnrollmentCompleted
	MetricLoginCancelled
	MetricLoginSuperseded
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshDeduplicated
	MetricSessionExpired
	MetricHydrateRestored
	MetricHydrateRejected
	MetricLogout
	MetricSessionRevoked
	MetricPasswordResetRequest
	MetricPasswordResetConfirm
	MetricGuardAllowed
	MetricGuardLoginRedirect
	MetricGuardRoleRedirect
	MetricGuardDisabledRedirect
	MetricAuditDropped
	MetricGatewayLatency
	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// Histogram bucket upper bounds for gateway round-trip latency.
var latencyBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	1 * time.Second,
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [histBucketCount]uint64
}

// Config controls metric collection. When Enabled is false every operation
// is a no-op.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds lock-free counters and an optional latency histogram.
// Increments are atomic and allocation-free.
type Metrics struct {
	cfg      Config
	counters [MetricIDCount]paddedCounter
	latency  histogram
}

// New creates a Metrics instance. A nil return means metrics are disabled.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{cfg: cfg}
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// ObserveLatency records a gateway round-trip duration.
func (m *Metrics) ObserveLatency(d time.Duration) {
	if m == nil || !m.cfg.EnableLatency {
		return
	}
	bucket := len(latencyBounds)
	for i, bound := range latencyBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	atomic.AddUint64(&m.latency.buckets[bucket], 1)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot returns a consistent-enough copy of all counters. Counters are
// read atomically one at a time; the snapshot is not a global atomic cut.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.cfg.EnableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range m.latency.buckets {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		snap.Histograms[MetricGatewayLatency] = buckets
	}
	return snap
}
