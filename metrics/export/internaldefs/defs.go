package internaldefs

import (
	"github.com/MrEthical07/pgjwt"
)

// CounterDef names one validator counter for export.
type CounterDef struct {
	ID   pgjwt.MetricID
	Name string
	Help string
}

// HistogramDef names one validator histogram for export.
type HistogramDef struct {
	ID   pgjwt.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: pgjwt.MetricStartup, Name: "pgjwt_startup_total", Help: "Module states created."},
	{ID: pgjwt.MetricStartupUnconfigured, Name: "pgjwt_startup_unconfigured_total", Help: "Module states created without a secret."},
	{ID: pgjwt.MetricShutdown, Name: "pgjwt_shutdown_total", Help: "Module states released."},
	{ID: pgjwt.MetricValidateAuthorized, Name: "pgjwt_validate_authorized_total", Help: "Tokens accepted."},
	{ID: pgjwt.MetricValidateDenied, Name: "pgjwt_validate_denied_total", Help: "Tokens denied for any reason."},
	{ID: pgjwt.MetricDeniedEncoding, Name: "pgjwt_denied_encoding_total", Help: "Denials for input that is not valid UTF-8."},
	{ID: pgjwt.MetricDeniedUnconfigured, Name: "pgjwt_denied_unconfigured_total", Help: "Denials because no secret was set at startup."},
	{ID: pgjwt.MetricDeniedMalformed, Name: "pgjwt_denied_malformed_total", Help: "Denials for tokens that could not be decoded."},
	{ID: pgjwt.MetricDeniedBadSignature, Name: "pgjwt_denied_bad_signature_total", Help: "Denials for signature mismatch or unsupported algorithm."},
	{ID: pgjwt.MetricDeniedExpired, Name: "pgjwt_denied_expired_total", Help: "Denials for expired tokens."},
	{ID: pgjwt.MetricDeniedClaimMismatch, Name: "pgjwt_denied_claim_mismatch_total", Help: "Denials for issuer or audience mismatch."},
	{ID: pgjwt.MetricHostAllocationFailure, Name: "pgjwt_host_allocation_failure_total", Help: "Identity copies the host could not allocate."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: pgjwt.MetricValidateLatency, Name: "pgjwt_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = []string{
	"0.000025",
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for use inside metric names.
var HistogramBoundSuffix = []string{
	"0_000025",
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
