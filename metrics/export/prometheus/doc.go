// Package prometheus renders validator metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads a [pgjwt.Validator] and exposes an [http.Handler] for tools
// that run the validator outside the database server. Counter names are prefixed
// pgjwt_*_total; the single histogram is pgjwt_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate validator state.
package prometheus
