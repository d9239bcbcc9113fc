package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("/photos/2023/IMG_0001.NEF")
	b := Key("/photos/2023/IMG_0001.NEF")
	if a != b {
		t.Errorf("same path produced different keys: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
	for _, r := range a {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Errorf("key contains non-lowercase-hex rune %q", r)
		}
	}
}

func TestKeyDistinctPaths(t *testing.T) {
	if Key("/a/b.jpg") == Key("/a/c.jpg") {
		t.Error("distinct paths produced identical keys")
	}
	// No tier component: the tier split lives in the store root.
	if Key("/a/b.jpg") != Key("/a/b.jpg") {
		t.Error("key is not a pure function of the path")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("/photos/test.jpg")
	if store.Exists(key) {
		t.Error("Exists reported true before write")
	}
	if _, ok := store.Read(key); ok {
		t.Error("Read reported hit before write")
	}

	payload := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	if err := store.Write(key, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !store.Exists(key) {
		t.Error("Exists reported false after write")
	}
	got, ok := store.Read(key)
	if !ok {
		t.Fatal("Read reported miss after write")
	}
	if string(got) != string(payload) {
		t.Errorf("Read returned %v, want %v", got, payload)
	}
}

func TestStoreEntryLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("/photos/layout.png")
	if err := store.Write(key, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(dir, key+".jpg")
	if store.Path(key) != want {
		t.Errorf("Path(%s) = %s, want %s", key, store.Path(key), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected entry at %s: %v", want, err)
	}
}

func TestWriteCommitsAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := Key("/photos/atomic.jpg")
	if err := store.Write(key, []byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Write(key, []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok := store.Read(key)
	if !ok || string(got) != "second" {
		t.Errorf("Read = %q, %v; want the overwriting write to win", got, ok)
	}

	// Only the committed entry may remain; no temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != key+".jpg" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("store root holds %v, want only %s.jpg", names, key)
	}
}

func TestNewStoreCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "thumbs")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore should create missing directories: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("store root not created: %v", err)
	}
}

func TestReadUnreadableEntryIsMiss(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are ignored when running as root")
	}
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	key := Key("/photos/unreadable.jpg")
	if err := store.Write(key, []byte("data")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.Chmod(store.Path(key), 0000); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	defer os.Chmod(store.Path(key), 0644)

	if _, ok := store.Read(key); ok {
		t.Error("unreadable entry should be reported as a miss")
	}
}
