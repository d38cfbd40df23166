package internaldefs

import (
	goRedeem "github.com/MrEthical07/goRedeem"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goRedeem.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goRedeem.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goRedeem.MetricLoginSuccess, Name: "goredeem_login_success_total", Help: "Successful operator sign-ins."},
	{ID: goRedeem.MetricLoginFailure, Name: "goredeem_login_failure_total", Help: "Failed operator sign-ins."},
	{ID: goRedeem.MetricLoginRateLimited, Name: "goredeem_login_rate_limited_total", Help: "Sign-ins refused by the attempt throttle."},
	{ID: goRedeem.MetricLogout, Name: "goredeem_logout_total", Help: "Completed logouts."},
	{ID: goRedeem.MetricSessionExpired, Name: "goredeem_session_expired_total", Help: "Stored sessions discarded as expired."},
	{ID: goRedeem.MetricRedemptionSuccess, Name: "goredeem_redemption_success_total", Help: "Redemptions accepted by the ledger."},
	{ID: goRedeem.MetricRedemptionFailure, Name: "goredeem_redemption_failure_total", Help: "Redemptions that ended in failure."},
	{ID: goRedeem.MetricScanIgnored, Name: "goredeem_scan_ignored_total", Help: "Scans dropped while a submission was in flight."},
	{ID: goRedeem.MetricValidationRejected, Name: "goredeem_validation_rejected_total", Help: "Workflow inputs rejected before submission."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goRedeem.MetricRedemptionLatency, Name: "goredeem_redemption_latency_seconds", Help: "Redemption round-trip latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more bucket for +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

// HistogramBoundSuffix names each bucket for exporters without native
// histogram support.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"10",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
