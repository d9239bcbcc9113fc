package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for a task with the given CPU multiplier.
// GOMAXPROCS already reflects container CPU limits, so the calculation is
// multiplier * GOMAXPROCS, floored at 1 and capped at limit (0 = no cap).
//
// The WORKER_COUNT environment variable overrides the calculation.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("WORKER_COUNT"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
