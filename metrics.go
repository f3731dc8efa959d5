package pgjwt

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by pgjwt APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricStartup counts module states created.
	MetricStartup MetricID = iota
	// MetricStartupUnconfigured counts states created without a secret.
	MetricStartupUnconfigured
	// MetricShutdown counts module states released.
	MetricShutdown
	// MetricValidateAuthorized counts accepted tokens.
	MetricValidateAuthorized
	// MetricValidateDenied counts all denials regardless of kind.
	MetricValidateDenied
	// MetricDeniedEncoding counts denials for non-UTF-8 input.
	MetricDeniedEncoding
	// MetricDeniedUnconfigured counts denials for missing or unknown state.
	MetricDeniedUnconfigured
	// MetricDeniedMalformed counts denials for undecodable tokens.
	MetricDeniedMalformed
	// MetricDeniedBadSignature counts denials for signature mismatch.
	MetricDeniedBadSignature
	// MetricDeniedExpired counts denials for expired tokens.
	MetricDeniedExpired
	// MetricDeniedClaimMismatch counts denials for issuer or audience mismatch.
	MetricDeniedClaimMismatch
	// MetricHostAllocationFailure counts identity copies the host could not allocate.
	MetricHostAllocationFailure
	// MetricValidateLatency is the validate latency histogram.
	MetricValidateLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricStartup:               "startup",
	MetricStartupUnconfigured:   "startup_unconfigured",
	MetricShutdown:              "shutdown",
	MetricValidateAuthorized:    "validate_authorized",
	MetricValidateDenied:        "validate_denied",
	MetricDeniedEncoding:        "denied_encoding",
	MetricDeniedUnconfigured:    "denied_unconfigured",
	MetricDeniedMalformed:       "denied_malformed",
	MetricDeniedBadSignature:    "denied_bad_signature",
	MetricDeniedExpired:         "denied_expired",
	MetricDeniedClaimMismatch:   "denied_claim_mismatch",
	MetricHostAllocationFailure: "host_allocation_failure",
	MetricValidateLatency:       "validate_latency",
}

func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

func deniedMetric(kind FailureKind) MetricID {
	switch kind {
	case FailureEncoding:
		return MetricDeniedEncoding
	case FailureUnconfigured:
		return MetricDeniedUnconfigured
	case FailureBadSignature:
		return MetricDeniedBadSignature
	case FailureExpired:
		return MetricDeniedExpired
	case FailureClaimMismatch:
		return MetricDeniedClaimMismatch
	default:
		return MetricDeniedMalformed
	}
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by pgjwt APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by pgjwt APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricValidateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

// Verification is in-memory, so buckets are in microseconds.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 25:
		return 0
	case us <= 50:
		return 1
	case us <= 100:
		return 2
	case us <= 250:
		return 3
	case us <= 500:
		return 4
	case us <= 1000:
		return 5
	case us <= 5000:
		return 6
	default:
		return 7
	}
}
