// Package startup handles configuration loading and startup logging.
//
// Configuration comes from environment variables with sensible defaults.
// The package also owns the startup banner, directory validation, external
// tool probes, and the structured log sections emitted while the service
// boots and shuts down.
package startup
