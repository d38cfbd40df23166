// Package prometheus exposes goRedeem engine metrics as a client_golang
// collector.
//
// Counters are named goredeem_*_total; redemption latency is the
// goredeem_redemption_latency_seconds histogram. Register the exporter in
// your own registry or mount [PrometheusExporter.Handler], which uses a
// private one.
package prometheus
