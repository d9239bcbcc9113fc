package memory

import (
	"runtime/debug"
	"testing"
)

func resetMemLimit(t *testing.T) {
	t.Helper()
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })
}

func TestConfigureFromEnvNoVariables(t *testing.T) {
	resetMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")
	t.Setenv("MEMORY_RATIO", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Error("configured without any environment variables")
	}
	if result.Source != "none" {
		t.Errorf("source = %s, want none", result.Source)
	}
}

func TestConfigureFromEnvMemoryLimit(t *testing.T) {
	resetMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824") // 1 GiB
	t.Setenv("MEMORY_RATIO", "")

	result := ConfigureFromEnv()
	if !result.Configured {
		t.Fatal("not configured")
	}
	if result.Source != "MEMORY_LIMIT" {
		t.Errorf("source = %s", result.Source)
	}
	limit := int64(1073741824)
	want := int64(float64(limit) * DefaultMemoryRatio)
	if result.GoMemLimit != want {
		t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, want)
	}
	if got := debug.SetMemoryLimit(-1); got != want {
		t.Errorf("runtime limit = %d, want %d", got, want)
	}
}

func TestConfigureFromEnvCustomRatio(t *testing.T) {
	resetMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1000000")
	t.Setenv("MEMORY_RATIO", "0.5")

	result := ConfigureFromEnv()
	if result.GoMemLimit != 500000 {
		t.Errorf("GoMemLimit = %d, want 500000", result.GoMemLimit)
	}
	if result.Ratio != 0.5 {
		t.Errorf("Ratio = %v", result.Ratio)
	}
}

func TestConfigureFromEnvBadValues(t *testing.T) {
	resetMemLimit(t)
	tests := []struct {
		name   string
		limit  string
		ratio  string
		wantOK bool
	}{
		{"garbage limit", "lots", "", false},
		{"out of range ratio falls back", "1000000", "7.5", true},
		{"garbage ratio falls back", "1000000", "half", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			result := ConfigureFromEnv()
			if result.Configured != tt.wantOK {
				t.Errorf("Configured = %v, want %v", result.Configured, tt.wantOK)
			}
			if tt.wantOK && result.Ratio != DefaultMemoryRatio {
				t.Errorf("Ratio = %v, want default", result.Ratio)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
