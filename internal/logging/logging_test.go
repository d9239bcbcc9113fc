package logging

import (
	"testing"
)

func TestLevelOrdering(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestLoggingFunctions verifies the level-gated helpers do not panic
// regardless of the configured level.
func TestLoggingFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("test message") }},
		{"Info", func() { Info("test message") }},
		{"Warn", func() { Warn("test message") }},
		{"Error", func() { Error("test message") }},
		{"Debug with args", func() { Debug("test %s %d", "message", 123) }},
		{"Printf", func() { Printf("test %s %d", "message", 123) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("function panicked: %v", r)
				}
			}()
			tt.fn()
		})
	}
}

func TestIsDebugEnabled(t *testing.T) {
	// GetLevel latches on first use; just confirm consistency between
	// the two accessors.
	if IsDebugEnabled() != (GetLevel() <= LevelDebug) {
		t.Error("IsDebugEnabled disagrees with GetLevel")
	}
}
