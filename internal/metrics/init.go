package metrics

// InitializeMetrics pre-populates the expected label combinations so every
// series is exported at zero from the first Prometheus scrape.
// Call once at startup.
func InitializeMetrics() {
	tiers := []string{"thumbnail", "preview"}
	outcomes := []string{"hit", "generated", "missing", "error"}

	for _, tier := range tiers {
		for _, status := range outcomes {
			DerivativeRequests.WithLabelValues(tier, status)
		}
		GenerationDuration.WithLabelValues(tier)
	}

	for _, stage := range tiers {
		SchedulerPasses.WithLabelValues(stage)
		SchedulerStageExhausted.WithLabelValues(stage)
		for _, status := range []string{"generated", "error"} {
			SchedulerGenerations.WithLabelValues(stage, status)
		}
	}

	for _, format := range []string{".nef", ".raf", ".cr2", ".cr3", ".arw", ".orf", ".rw2", ".dng"} {
		EmbeddedCandidatesFound.WithLabelValues(format)
	}

	for _, op := range []string{"list_paths", "search", "lookup_file", "replace_key_values"} {
		RegistryQueries.WithLabelValues(op, "success")
		RegistryQueries.WithLabelValues(op, "error")
	}
}
