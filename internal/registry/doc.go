// Package registry stores the metadata index extracted from XMP sidecars.
//
// The schema is two tables: file (path + content hash, for incremental
// imports) and key_value (flattened metadata entries per file). Searches
// match LIKE substrings against metadata values, with " AND " in the term
// requiring every part to match the same value.
package registry
