// Package otel binds validator metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each validator counter and an
// Int64ObservableGauge per latency bucket. A single callback reads
// [pgjwt.Validator.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate validator state.
package otel
