package media

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"photofind/internal/logging"

	// Raster format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP support
	_ "golang.org/x/image/tiff" // compressed-TIFF fallback for the dedicated decoder
	_ "golang.org/x/image/webp" // WebP support
)

const (
	// maxImageDimension is the largest edge loaded at full size. Bigger
	// sources are decode-shrunk to keep memory bounded.
	maxImageDimension = 4096

	// maxImagePixels caps total pixels; ~20MP is ~80MB as RGBA.
	maxImagePixels = 20_000_000
)

// loadRaster opens an image with the registered decoders, shrinking
// oversized sources at decode time via libvips when available.
func loadRaster(path string) (image.Image, error) {
	width, height, err := imageDimensions(path)
	if err != nil {
		logging.Debug("Could not probe dimensions for %s: %v, opening directly", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	if width <= maxImageDimension && height <= maxImageDimension && width*height <= maxImagePixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	targetWidth, targetHeight := constrainDimensions(width, height)
	logging.Info("Constraining large image %s from %dx%d to %dx%d",
		path, width, height, targetWidth, targetHeight)

	if IsVipsAvailable() {
		img, err := loadWithVips(path, targetWidth, targetHeight)
		if err == nil {
			return img, nil
		}
		logging.Warn("vips load failed for %s, falling back to full decode: %v", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// constrainDimensions fits (width, height) under the dimension and pixel
// caps, preserving aspect ratio.
func constrainDimensions(width, height int) (int, int) {
	targetWidth, targetHeight := width, height

	if width > maxImageDimension || height > maxImageDimension {
		if width > height {
			targetWidth = maxImageDimension
			targetHeight = height * maxImageDimension / width
		} else {
			targetHeight = maxImageDimension
			targetWidth = width * maxImageDimension / height
		}
	}

	if pixels := targetWidth * targetHeight; pixels > maxImagePixels {
		scale := float64(maxImagePixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	return targetWidth, targetHeight
}

// imageDimensions returns a source's dimensions without a full decode.
func imageDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}

// isUnknownFormat reports whether a decode failure means the container is
// simply not a registered raster format, as opposed to a corrupt file.
func isUnknownFormat(err error) bool {
	if errors.Is(err, image.ErrFormat) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "unknown format")
}
