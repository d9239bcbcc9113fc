package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"photofind/internal/logging"

	"github.com/disintegration/imaging"
)

// loadToolPreview shells out to exiftool to dump every preview image a RAW
// file carries, then decodes the largest. exiftool knows vendor structures
// the byte scanners do not, so this runs before them in the RAW chain.
func loadToolPreview(path string) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "rawpreview-")
	if err != nil {
		return nil, fmt.Errorf("creating preview temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logging.Warn("failed to remove preview temp dir %s: %v", tmpDir, err)
		}
	}()

	// -W writes each preview to its own file; %t is the tag name, %c a
	// counter for duplicate tags.
	cmd := exec.Command("exiftool",
		"-b", "-a",
		"-W", filepath.Join(tmpDir, "%f_%t%c.%s"),
		"-preview:all",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool failed for %s: %w (%s)",
			path, err, strings.TrimSpace(stderr.String()))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("reading preview temp dir: %w", err)
	}

	var largest string
	var largestSize int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Size() > largestSize {
			largestSize = info.Size()
			largest = filepath.Join(tmpDir, entry.Name())
		}
	}
	if largest == "" {
		return nil, fmt.Errorf("%w: exiftool extracted nothing from %s", ErrNoPreview, path)
	}

	img, err := imaging.Open(largest)
	if err != nil {
		return nil, fmt.Errorf("decoding exiftool preview: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < minUsableEdge || bounds.Dy() < minUsableEdge {
		return nil, fmt.Errorf("%w: exiftool preview only %dx%d",
			ErrNoPreview, bounds.Dx(), bounds.Dy())
	}

	logging.Debug("exiftool preview for %s: %d bytes, %dx%d",
		path, largestSize, bounds.Dx(), bounds.Dy())
	return img, nil
}
