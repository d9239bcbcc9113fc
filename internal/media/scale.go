package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// passThroughMax: sources at or below this on both edges are re-encoded
	// without resizing.
	passThroughMax = 400

	// progressiveMin: sources above this on either edge go through a cheap
	// intermediate shrink before the final high-quality pass. Resampling a
	// 40MP frame with CatmullRom directly is the dominant cost otherwise.
	progressiveMin = 2000

	// progressiveBox is the bounding box of the intermediate shrink.
	progressiveBox = 800
)

// scaleRoute records which branch of the scaling policy handled an image.
type scaleRoute int

const (
	routePassThrough scaleRoute = iota
	routeSingle
	routeProgressive
)

func (r scaleRoute) String() string {
	switch r {
	case routePassThrough:
		return "pass-through"
	case routeSingle:
		return "single"
	default:
		return "progressive"
	}
}

// scaleForTier applies the tiered scaling policy to a decoded image and
// returns the result along with the route taken. Aspect ratio is always
// preserved; images are scaled to fit the bounding box, never cropped.
func scaleForTier(img image.Image, tier Tier) (image.Image, scaleRoute) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= passThroughMax && height <= passThroughMax {
		return img, routePassThrough
	}

	box := tier.MaxDimension()
	if width > progressiveMin || height > progressiveMin {
		// Fast, low-quality shrink first, so the expensive filter only
		// touches an 800px image.
		intermediate := fitWithin(img, progressiveBox, imaging.Linear)
		return fitWithin(intermediate, box, imaging.CatmullRom), routeProgressive
	}

	return fitWithin(img, box, imaging.CatmullRom), routeSingle
}

// fitWithin scales img so its longer edge equals box, preserving aspect
// ratio. Unlike imaging.Fit this also scales up, which keeps preview output
// a predictable size regardless of source dimensions.
func fitWithin(img image.Image, box int, filter imaging.ResampleFilter) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() >= bounds.Dy() {
		return imaging.Resize(img, box, 0, filter)
	}
	return imaging.Resize(img, 0, box, filter)
}

// encodeJPEG renders an image as JPEG at the given quality.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
