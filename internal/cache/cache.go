package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"photofind/internal/logging"
)

// Key derives the cache key for a normalized source path: the lowercase hex
// SHA-256 digest of the path's UTF-8 bytes. The key carries no tier
// component; tiers are separated by store root instead.
func Key(sourcePath string) string {
	sum := sha256.Sum256([]byte(sourcePath))
	return hex.EncodeToString(sum[:])
}

// Store is a flat directory of JPEG derivatives addressed by cache key.
// One Store exists per derivative tier.
type Store struct {
	root string
}

// NewStore opens (creating if needed) a derivative store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the on-disk location for a key, whether or not it exists.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+".jpg")
}

// Read returns the cached derivative for key. Missing or unreadable entries
// are reported as misses rather than errors; an unreadable entry will be
// regenerated and overwritten by the caller's write-through.
func (s *Store) Read(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Cache entry %s unreadable, treating as miss: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

// Exists reports whether a derivative for key is present on disk.
func (s *Store) Exists(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && info.Mode().IsRegular()
}

// Write stores a derivative under key. The bytes land in a uniquely named
// temp file first and move into place via rename, so a reader never sees a
// partially written entry and racing writers settle last-writer-wins.
func (s *Store) Write(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp entry for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache entry %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("setting mode on cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("committing cache entry %s: %w", key, err)
	}
	return nil
}
