// Package middleware provides HTTP middleware: W3C access logging,
// Prometheus request metrics, and interactive-activity tracking for the
// background scheduler.
package middleware
