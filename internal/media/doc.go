// Package media implements derivative generation: decoding media sources,
// scaling them to a tier's bounding box, and caching the encoded JPEG.
//
// Decoding is organized as per-class strategy chains. RAW camera files are
// never demosaiced; they are mined for the embedded JPEG previews every RAW
// container carries, via exiftool when present and byte-level scanners
// otherwise. TIFFs get a dedicated baseline decoder before falling back to
// the registered raster decoders, and videos contribute a single
// ffmpeg-extracted frame.
//
// The scaling policy is shared by every chain: small sources are re-encoded
// as-is, very large sources get a cheap intermediate shrink before the
// high-quality resample, everything else is resampled directly.
package media
