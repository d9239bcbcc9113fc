package media

import (
	"errors"
	"fmt"
)

// Tier identifies a derivative size class. Each tier has its own cache store,
// bounding box, and JPEG quality.
type Tier int

const (
	// TierThumbnail is the small grid derivative.
	TierThumbnail Tier = iota
	// TierPreview is the large single-image derivative.
	TierPreview
)

// MaxDimension returns the tier's bounding box edge in pixels.
func (t Tier) MaxDimension() int {
	if t == TierThumbnail {
		return 200
	}
	return 1980
}

// Quality returns the tier's JPEG encode quality.
func (t Tier) Quality() int {
	if t == TierThumbnail {
		return 50
	}
	return 60
}

func (t Tier) String() string {
	if t == TierThumbnail {
		return "thumbnail"
	}
	return "preview"
}

var (
	// ErrSourceMissing indicates the source file does not exist on disk.
	ErrSourceMissing = errors.New("source file missing")
	// ErrNoPreview indicates no usable embedded preview was found in a RAW file.
	ErrNoPreview = errors.New("no usable embedded preview")
	// ErrUnsupported indicates no decode strategy could handle the file.
	ErrUnsupported = errors.New("unsupported media format")
)

// decodeError wraps the last strategy failure with the exhausted chain context.
func decodeError(path string, last error) error {
	return fmt.Errorf("%w: all decode strategies failed for %s: %v", ErrUnsupported, path, last)
}
