package mediatypes

import (
	"path/filepath"
	"strings"
)

// Class groups file extensions by the decode pipeline that handles them.
type Class string

const (
	// ClassRaster covers formats the generic image decoders handle directly.
	ClassRaster Class = "raster"
	// ClassTIFF covers TIFF containers, which get a dedicated decode path.
	ClassTIFF Class = "tiff"
	// ClassRaw covers RAW camera formats with a dedicated preview-extraction path.
	ClassRaw Class = "raw"
	// ClassVideo covers video containers, decoded via frame extraction.
	ClassVideo Class = "video"
	// ClassOther is anything the pipeline cannot produce derivatives for.
	ClassOther Class = "other"
)

// SidecarSuffix is the metadata sidecar extension appended to media filenames.
const SidecarSuffix = ".xmp"

// RawExtensions are RAW formats with a dedicated preview-extraction pipeline.
var RawExtensions = map[string]bool{
	".nef": true,
	".cr2": true,
	".cr3": true,
	".arw": true,
	".orf": true,
	".rw2": true,
	".raf": true,
	".dng": true,
}

// OtherRawExtensions are the long tail of RAW formats. They route through the
// generic raster decoders first but remain eligible for the embedded-preview
// fallback when those decoders reject the container.
var OtherRawExtensions = map[string]bool{
	".3fr": true, ".ari": true, ".bay": true, ".crw": true, ".dcr": true,
	".erf": true, ".fff": true, ".iiq": true, ".k25": true, ".kdc": true,
	".mdc": true, ".mos": true, ".mrw": true, ".pef": true, ".ptx": true,
	".pxn": true, ".r3d": true, ".rwl": true, ".sr2": true, ".srf": true,
	".srw": true, ".x3f": true,
}

// RasterExtensions are formats handled by the registered image decoders.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// TIFFExtensions are TIFF containers.
var TIFFExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
}

// VideoExtensions are video containers supported for frame extraction.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".mkv":  true,
	".m4v":  true,
	".3gp":  true,
	".ogv":  true,
}

// ClassOf returns the pipeline class for a lowercase extension including the
// leading dot. Unrecognized extensions map to ClassOther.
func ClassOf(ext string) Class {
	switch {
	case RawExtensions[ext]:
		return ClassRaw
	case TIFFExtensions[ext]:
		return ClassTIFF
	case RasterExtensions[ext], OtherRawExtensions[ext]:
		return ClassRaster
	case VideoExtensions[ext]:
		return ClassVideo
	default:
		return ClassOther
	}
}

// ClassOfPath returns the pipeline class for a file path.
func ClassOfPath(path string) Class {
	return ClassOf(Extension(path))
}

// Extension returns the lowercased extension of path, leading dot included.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsRawFamily reports whether the extension belongs to any RAW format,
// dedicated pipeline or not. Used to gate the embedded-preview fallback.
func IsRawFamily(ext string) bool {
	return RawExtensions[ext] || OtherRawExtensions[ext]
}

// StripSidecar removes a trailing sidecar suffix so that requests naming the
// sidecar resolve to the same media file (and cache entry) as requests naming
// the media file itself.
func StripSidecar(path string) string {
	return strings.TrimSuffix(path, SidecarSuffix)
}
