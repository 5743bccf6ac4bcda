// Package prometheus renders guardian counters in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [guardian.Engine] and exposes an
// [net/http.Handler] that serves all guardian counters. Counter names are
// prefixed guardian_*_total.
//
// This package does not register anything in a global Prometheus
// registry; callers mount the Handler themselves.
package prometheus
