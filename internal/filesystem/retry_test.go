package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestIsStaleHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"estale", syscall.ESTALE, true},
		{"wrapped estale", fmt.Errorf("reading: %w", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}), true},
		{"enoent", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleHandleError(tt.err); got != tt.want {
				t.Errorf("isStaleHandleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.nef")
	if err := os.WriteFile(path, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := Stat(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 3 {
		t.Errorf("size = %d", info.Size())
	}
}

func TestStatMissingFileNotRetried(t *testing.T) {
	start := time.Now()
	_, err := Stat(filepath.Join(t.TempDir(), "missing"), DefaultRetryConfig())
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	// A retried ENOENT would have slept through the backoff schedule.
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("non-NFS error took %v, should fail immediately", elapsed)
	}
}

func TestReadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidecar.xmp")
	if err := os.WriteFile(path, []byte("<xml/>"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "<xml/>" {
		t.Errorf("data = %q", data)
	}
}

func TestWithRetryRecoversFromStaleHandle(t *testing.T) {
	calls := 0
	err := withRetry("stat", "/nfs/x", fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := withRetry("read", "/nfs/x", fastRetryConfig(), func() error {
		calls++
		return syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("err = %v, want ESTALE", err)
	}
	if calls != 4 { // initial attempt plus MaxRetries
		t.Errorf("calls = %d, want 4", calls)
	}
}
