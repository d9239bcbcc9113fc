// Package mediatypes provides shared type definitions and utilities for media
// file classification across the application.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains the extension
// tables and pure utility functions the decode pipeline dispatches on.
//
// # Pipeline Classes
//
// Each extension maps to the decode pipeline that handles it:
//
//	mediatypes.ClassRaster // generic image decoders (jpg, png, webp, ...)
//	mediatypes.ClassTIFF   // dedicated TIFF decoder with raster fallback
//	mediatypes.ClassRaw    // embedded-preview extraction (nef, cr2, raf, ...)
//	mediatypes.ClassVideo  // single-frame extraction via ffmpeg
//	mediatypes.ClassOther  // no derivative support
//
// # Class Detection
//
//	class := mediatypes.ClassOfPath(filename)
//	switch class {
//	case mediatypes.ClassRaw:
//	    // extract an embedded preview
//	case mediatypes.ClassVideo:
//	    // grab a frame
//	}
//
// # Sidecars
//
// Requests may name a metadata sidecar rather than the media file itself.
// StripSidecar normalizes such paths before cache-key derivation so both
// spellings share one cache entry.
package mediatypes
