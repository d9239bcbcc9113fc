package media

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"
)

// Baseline TIFF tags the decoder cares about.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagYCbCrSubSample  = 530
)

// Photometric interpretations.
const (
	photoWhiteIsZero = 0
	photoBlackIsZero = 1
	photoRGB         = 2
	photoYCbCr       = 6
)

// Decode bounds. IFD fields are untrusted 32-bit values straight from the
// file; anything past these caps is rejected before the sample buffer is
// sized, so a crafted header cannot overflow the size product or demand an
// absurd allocation.
const (
	maxTIFFDimension  = 32768
	maxTIFFSamples    = 8
	maxTIFFPixelBytes = 1 << 29 // 512 MiB
)

type tiffInfo struct {
	width, height   int
	bits            int
	samplesPerPixel int
	compression     int
	photometric     int
	planar          int
	rowsPerStrip    int
	stripOffsets    []int
	stripCounts     []int
	subSampleH      int
	subSampleV      int
	subSampleSet    bool
}

// loadTIFF decodes a baseline uncompressed TIFF: 8- or 16-bit grayscale,
// RGB, or unsubsampled YCbCr, chunky layout. Anything else errors out and
// the caller falls back to the generic raster decoders, which handle the
// compressed variants.
func loadTIFF(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tiff: %w", err)
	}
	return decodeTIFF(data)
}

func decodeTIFF(data []byte) (image.Image, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tiff header truncated")
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a tiff: bad byte-order mark")
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("not a tiff: bad magic")
	}

	info, err := parseIFD(data, order, int(order.Uint32(data[4:8])))
	if err != nil {
		return nil, err
	}
	if err := validateTIFF(info); err != nil {
		return nil, err
	}

	samples, err := assembleStrips(data, info)
	if err != nil {
		return nil, err
	}
	return convertSamples(samples, info, order)
}

// parseIFD reads the first image file directory.
func parseIFD(data []byte, order binary.ByteOrder, offset int) (*tiffInfo, error) {
	if offset < 0 || offset+2 > len(data) {
		return nil, fmt.Errorf("tiff IFD offset out of range")
	}
	count := int(order.Uint16(data[offset:]))
	if offset+2+count*12 > len(data) {
		return nil, fmt.Errorf("tiff IFD truncated")
	}

	// Spec defaults
	info := &tiffInfo{
		bits:            1,
		samplesPerPixel: 1,
		compression:     1,
		photometric:     -1,
		planar:          1,
	}

	for i := 0; i < count; i++ {
		entry := offset + 2 + i*12
		tag := int(order.Uint16(data[entry:]))
		values, ok := entryValues(data, order, entry)
		if !ok || len(values) == 0 {
			continue
		}

		switch tag {
		case tagImageWidth:
			info.width = values[0]
		case tagImageLength:
			info.height = values[0]
		case tagBitsPerSample:
			info.bits = values[0]
			for _, v := range values {
				if v != info.bits {
					return nil, fmt.Errorf("tiff: mixed bits per sample")
				}
			}
		case tagCompression:
			info.compression = values[0]
		case tagPhotometric:
			info.photometric = values[0]
		case tagSamplesPerPixel:
			info.samplesPerPixel = values[0]
		case tagRowsPerStrip:
			info.rowsPerStrip = values[0]
		case tagStripOffsets:
			info.stripOffsets = values
		case tagStripByteCounts:
			info.stripCounts = values
		case tagPlanarConfig:
			info.planar = values[0]
		case tagYCbCrSubSample:
			if len(values) >= 2 {
				info.subSampleH = values[0]
				info.subSampleV = values[1]
				info.subSampleSet = true
			}
		}
	}

	return info, nil
}

// entryValues extracts an IFD entry's integer values for BYTE, SHORT, and
// LONG types. Other types are reported as absent.
func entryValues(data []byte, order binary.ByteOrder, entry int) ([]int, bool) {
	typ := int(order.Uint16(data[entry+2:]))
	count := int(order.Uint32(data[entry+4:]))

	var size int
	switch typ {
	case 1: // BYTE
		size = 1
	case 3: // SHORT
		size = 2
	case 4: // LONG
		size = 4
	default:
		return nil, false
	}

	total := size * count
	valOff := entry + 8
	if total > 4 {
		valOff = int(order.Uint32(data[entry+8:]))
	}
	if valOff < 0 || valOff+total > len(data) {
		return nil, false
	}

	values := make([]int, count)
	for i := 0; i < count; i++ {
		switch size {
		case 1:
			values[i] = int(data[valOff+i])
		case 2:
			values[i] = int(order.Uint16(data[valOff+i*2:]))
		case 4:
			values[i] = int(order.Uint32(data[valOff+i*4:]))
		}
	}
	return values, true
}

func validateTIFF(info *tiffInfo) error {
	if info.width <= 0 || info.height <= 0 {
		return fmt.Errorf("tiff: missing dimensions")
	}
	if info.width > maxTIFFDimension || info.height > maxTIFFDimension {
		return fmt.Errorf("tiff: %dx%d exceeds decode bounds", info.width, info.height)
	}
	if info.samplesPerPixel < 1 || info.samplesPerPixel > maxTIFFSamples {
		return fmt.Errorf("tiff: %d samples per pixel not handled", info.samplesPerPixel)
	}
	if info.compression != 1 {
		return fmt.Errorf("tiff: compression %d not handled here", info.compression)
	}
	if info.planar != 1 {
		return fmt.Errorf("tiff: planar layout not handled")
	}
	if info.bits != 8 && info.bits != 16 {
		return fmt.Errorf("tiff: %d bits per sample not handled", info.bits)
	}
	if len(info.stripOffsets) == 0 || len(info.stripOffsets) != len(info.stripCounts) {
		return fmt.Errorf("tiff: malformed strip tables")
	}

	switch info.photometric {
	case photoWhiteIsZero, photoBlackIsZero:
		if info.samplesPerPixel != 1 {
			return fmt.Errorf("tiff: grayscale with %d samples per pixel", info.samplesPerPixel)
		}
	case photoRGB:
		if info.samplesPerPixel < 3 {
			return fmt.Errorf("tiff: RGB with %d samples per pixel", info.samplesPerPixel)
		}
	case photoYCbCr:
		if info.samplesPerPixel != 3 {
			return fmt.Errorf("tiff: YCbCr with %d samples per pixel", info.samplesPerPixel)
		}
		if info.subSampleSet && (info.subSampleH != 1 || info.subSampleV != 1) {
			return fmt.Errorf("tiff: YCbCr %d:%d subsampling not handled",
				info.subSampleH, info.subSampleV)
		}
	default:
		return fmt.Errorf("tiff: photometric %d not handled", info.photometric)
	}

	// Safe to multiply: every factor is capped above.
	if total := info.width * info.height * info.samplesPerPixel * (info.bits / 8); total > maxTIFFPixelBytes {
		return fmt.Errorf("tiff: %d bytes of pixel data exceeds decode bounds", total)
	}
	return nil
}

// assembleStrips concatenates strip data into one contiguous sample buffer.
func assembleStrips(data []byte, info *tiffInfo) ([]byte, error) {
	expected := info.width * info.height * info.samplesPerPixel * (info.bits / 8)

	buf := make([]byte, 0, expected)
	for i, off := range info.stripOffsets {
		n := info.stripCounts[i]
		if off < 0 || n < 0 || off+n > len(data) {
			return nil, fmt.Errorf("tiff: strip %d out of range", i)
		}
		buf = append(buf, data[off:off+n]...)
	}
	if len(buf) < expected {
		return nil, fmt.Errorf("tiff: pixel data truncated (%d of %d bytes)", len(buf), expected)
	}
	return buf[:expected], nil
}

// convertSamples turns the raw sample buffer into an NRGBA image. 16-bit
// samples are downsampled by keeping the high byte. Grayscale is duplicated
// across RGB; YCbCr converts via BT.601.
func convertSamples(buf []byte, info *tiffInfo, order binary.ByteOrder) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, info.width, info.height))
	stride := info.samplesPerPixel * (info.bits / 8)

	sample := func(pixelOff, component int) uint8 {
		if info.bits == 8 {
			return buf[pixelOff+component]
		}
		return uint8(order.Uint16(buf[pixelOff+component*2:]) >> 8)
	}

	for y := 0; y < info.height; y++ {
		for x := 0; x < info.width; x++ {
			off := (y*info.width + x) * stride

			var c color.NRGBA
			c.A = 0xFF
			switch info.photometric {
			case photoWhiteIsZero:
				g := 0xFF - sample(off, 0)
				c.R, c.G, c.B = g, g, g
			case photoBlackIsZero:
				g := sample(off, 0)
				c.R, c.G, c.B = g, g, g
			case photoRGB:
				c.R = sample(off, 0)
				c.G = sample(off, 1)
				c.B = sample(off, 2)
			case photoYCbCr:
				c.R, c.G, c.B = ycbcrToRGB(sample(off, 0), sample(off, 1), sample(off, 2))
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// ycbcrToRGB applies the BT.601 full-range conversion.
func ycbcrToRGB(y, cb, cr uint8) (uint8, uint8, uint8) {
	yf := float64(y)
	cbf := float64(cb) - 128
	crf := float64(cr) - 128

	r := yf + 1.402*crf
	g := yf - 0.344136*cbf - 0.714136*crf
	b := yf + 1.772*cbf

	return clampByte(r), clampByte(g), clampByte(b)
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
