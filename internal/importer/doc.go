// Package importer walks the scan directory for XMP sidecar files and loads
// their metadata into the registry.
//
// Each sidecar is hashed so unchanged files are skipped on repeat runs. The
// XMP is flattened with a streaming token parse; tag lists and titles become
// semicolon-joined values, and JPEG companions contribute a couple of EXIF
// fields. Files are processed by a bounded worker pool sized for IO.
package importer
