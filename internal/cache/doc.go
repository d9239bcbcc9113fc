// Package cache implements the content-addressed derivative cache.
//
// Derivatives are JPEG files stored in a flat directory per tier, named
// <key>.jpg where key is the SHA-256 hex digest of the normalized source
// path. The same source therefore maps to the same key in every tier, and a
// source that moves on disk gets a fresh entry (stale entries for the old
// path are left behind; there is no invalidation).
//
// Reads never fail: a missing or unreadable entry is a miss, and the caller
// regenerates and overwrites it.
package cache
