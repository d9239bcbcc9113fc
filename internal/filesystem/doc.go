// Package filesystem wraps library reads with retry logic for transient NFS
// stale file handle errors. Non-NFS errors pass through untouched, and
// successful operations pay no extra cost.
package filesystem
