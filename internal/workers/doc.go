/*
Package workers determines worker pool sizes in containerized environments.

runtime.NumCPU() reports the host CPU count even when cgroup limits apply,
while GOMAXPROCS reflects the container limit (Go 1.19+). The helpers here
size pools from GOMAXPROCS with a per-workload multiplier:

	// CPU-intensive work (image decoding, scaling)
	n := workers.ForCPU(8)

	// I/O-heavy work (sidecar scanning, cache population)
	n := workers.ForIO(16)

All functions honor the WORKER_COUNT environment variable as an operator
override and are safe for concurrent use.
*/
package workers
