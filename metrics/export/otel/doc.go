// Package otel publishes goRedeem engine metrics through an OpenTelemetry
// Meter supplied by the caller.
//
// Counters become Int64ObservableCounter instruments. The redemption latency
// histogram is flattened into one gauge per cumulative bucket plus count and
// sum gauges, all refreshed from [goRedeem.Engine.MetricsSnapshot] in a single
// callback.
package otel
