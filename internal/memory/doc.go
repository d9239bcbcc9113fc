// Package memory configures the Go runtime's soft memory limit from the
// container's memory limit, keeping large image decodes from tripping the
// OOM killer in constrained deployments.
package memory
