// Package otel provides OpenTelemetry metric exporter bindings for
// guardian counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter per guardian
// metric. A single callback reads [guardian.Engine.MetricsSnapshot] on
// each collection cycle.
//
// Callers supply the Meter; this package never owns the MeterProvider.
package otel
