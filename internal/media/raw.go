package media

import (
	"bytes"
	"fmt"
	"image"

	"photofind/internal/filesystem"
	"photofind/internal/logging"
	"photofind/internal/mediatypes"
	"photofind/internal/metrics"

	"github.com/disintegration/imaging"
)

// minUsableEdge rejects decoded candidates that are icon-sized thumbnails
// rather than real previews.
const minUsableEdge = 200

// loadEmbeddedPreview reads a RAW container and decodes the best embedded
// JPEG preview. Candidates are tried largest-first; anything with a bad
// header, undecodable body, or icon-sized dimensions is skipped.
func loadEmbeddedPreview(path string) (image.Image, error) {
	data, err := filesystem.ReadFile(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("reading raw container: %w", err)
	}

	ext := mediatypes.Extension(path)
	candidates := FindEmbedded(data, ext)
	metrics.EmbeddedCandidatesFound.WithLabelValues(ext).Add(float64(len(candidates)))
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPreview, path)
	}

	for idx, c := range candidates {
		payload := data[c.Start:c.End]

		if len(payload) < 10 || payload[0] != 0xFF || payload[1] != 0xD8 {
			logging.Debug("Candidate #%d in %s has invalid header, skipping", idx+1, path)
			continue
		}

		img, err := imaging.Decode(bytes.NewReader(payload))
		if err != nil {
			logging.Debug("Candidate #%d in %s failed to decode: %v", idx+1, path, err)
			continue
		}

		bounds := img.Bounds()
		if bounds.Dx() < minUsableEdge || bounds.Dy() < minUsableEdge {
			logging.Debug("Candidate #%d in %s too small (%dx%d), trying next",
				idx+1, path, bounds.Dx(), bounds.Dy())
			continue
		}

		logging.Debug("Using candidate #%d from %s: %d bytes, %dx%d",
			idx+1, path, c.Size(), bounds.Dx(), bounds.Dy())
		return img, nil
	}

	return nil, fmt.Errorf("%w: %d candidates rejected in %s", ErrNoPreview, len(candidates), path)
}
