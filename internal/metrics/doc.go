// Package metrics defines the Prometheus instrumentation for the derivative
// pipeline, background scheduler, sidecar importer, and HTTP surface.
//
// All metrics use promauto and register against the default registry; the
// /metrics endpoint is served by promhttp on the metrics port. Call
// InitializeMetrics at startup to pre-populate label combinations so
// dashboards see zero-valued series before the first event.
package metrics
