package media

import (
	"encoding/binary"
	"image"
	"sort"
	"testing"
)

// tiffEntry is one IFD entry for the test builder. Values are written as
// SHORTs unless long is set.
type tiffEntry struct {
	tag    uint16
	values []uint32
	long   bool
}

// buildTestTIFF assembles a minimal little-endian TIFF: header, one IFD,
// external value area, then pixel data. Strip tags are appended
// automatically for a single strip covering all of pixels.
func buildTestTIFF(t *testing.T, entries []tiffEntry, pixels []byte) []byte {
	t.Helper()

	// Strip layout tags get filled in once the pixel offset is known.
	entries = append(entries,
		tiffEntry{tag: tagStripOffsets, values: []uint32{0}, long: true},
		tiffEntry{tag: tagStripByteCounts, values: []uint32{uint32(len(pixels))}, long: true},
	)
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	const headerLen = 8
	ifdLen := 2 + len(entries)*12 + 4

	// External area holds any value set that does not fit inline.
	extLen := 0
	for _, e := range entries {
		size := 2
		if e.long {
			size = 4
		}
		if size*len(e.values) > 4 {
			extLen += size * len(e.values)
		}
	}

	pixelOffset := headerLen + ifdLen + extLen

	buf := make([]byte, 0, pixelOffset+len(pixels))
	le := binary.LittleEndian

	u16 := func(v uint16) {
		buf = append(buf, 0, 0)
		le.PutUint16(buf[len(buf)-2:], v)
	}
	u32 := func(v uint32) {
		buf = append(buf, 0, 0, 0, 0)
		le.PutUint32(buf[len(buf)-4:], v)
	}

	buf = append(buf, 'I', 'I')
	u16(42)
	u32(headerLen) // IFD follows immediately

	u16(uint16(len(entries)))
	extOffset := headerLen + ifdLen
	var ext []byte
	for _, e := range entries {
		values := e.values
		if e.tag == tagStripOffsets {
			values = []uint32{uint32(pixelOffset)}
		}

		typ, size := uint16(3), 2
		if e.long {
			typ, size = 4, 4
		}

		u16(e.tag)
		u16(typ)
		u32(uint32(len(values)))

		if size*len(values) <= 4 {
			inlineStart := len(buf)
			buf = append(buf, 0, 0, 0, 0)
			for i, v := range values {
				if e.long {
					le.PutUint32(buf[inlineStart+i*4:], v)
				} else {
					le.PutUint16(buf[inlineStart+i*2:], uint16(v))
				}
			}
		} else {
			u32(uint32(extOffset))
			for _, v := range values {
				if e.long {
					var tmp [4]byte
					le.PutUint32(tmp[:], v)
					ext = append(ext, tmp[:]...)
				} else {
					var tmp [2]byte
					le.PutUint16(tmp[:], uint16(v))
					ext = append(ext, tmp[:]...)
				}
			}
			extOffset += size * len(values)
		}
	}
	u32(0) // no next IFD
	buf = append(buf, ext...)
	buf = append(buf, pixels...)
	return buf
}

func grayEntries(width, height, bits uint32, photometric uint32) []tiffEntry {
	return []tiffEntry{
		{tag: tagImageWidth, values: []uint32{width}},
		{tag: tagImageLength, values: []uint32{height}},
		{tag: tagBitsPerSample, values: []uint32{bits}},
		{tag: tagCompression, values: []uint32{1}},
		{tag: tagPhotometric, values: []uint32{photometric}},
		{tag: tagSamplesPerPixel, values: []uint32{1}},
	}
}

func rgbEntries(width, height uint32, photometric uint32) []tiffEntry {
	return []tiffEntry{
		{tag: tagImageWidth, values: []uint32{width}},
		{tag: tagImageLength, values: []uint32{height}},
		{tag: tagBitsPerSample, values: []uint32{8, 8, 8}},
		{tag: tagCompression, values: []uint32{1}},
		{tag: tagPhotometric, values: []uint32{photometric}},
		{tag: tagSamplesPerPixel, values: []uint32{3}},
	}
}

func pixelAt(t *testing.T, img image.Image, x, y int) (uint8, uint8, uint8) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestDecodeTIFFGray8(t *testing.T) {
	data := buildTestTIFF(t, grayEntries(2, 2, 8, photoBlackIsZero),
		[]byte{0x00, 0x40, 0x80, 0xFF})

	img, err := decodeTIFF(data)
	if err != nil {
		t.Fatalf("decodeTIFF: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", img.Bounds().Dx(), img.Bounds().Dy())
	}

	r, g, b := pixelAt(t, img, 1, 0)
	if r != 0x40 || g != 0x40 || b != 0x40 {
		t.Errorf("gray pixel = (%d,%d,%d), want duplicated 0x40", r, g, b)
	}
}

func TestDecodeTIFFGrayWhiteIsZero(t *testing.T) {
	data := buildTestTIFF(t, grayEntries(1, 1, 8, photoWhiteIsZero), []byte{0x00})

	img, err := decodeTIFF(data)
	if err != nil {
		t.Fatalf("decodeTIFF: %v", err)
	}
	if r, _, _ := pixelAt(t, img, 0, 0); r != 0xFF {
		t.Errorf("WhiteIsZero 0x00 decoded to %d, want 255 (inverted)", r)
	}
}

func TestDecodeTIFFGray16KeepsHighByte(t *testing.T) {
	// Little-endian 16-bit sample 0xAB12 downsamples to 0xAB.
	data := buildTestTIFF(t, grayEntries(1, 1, 16, photoBlackIsZero), []byte{0x12, 0xAB})

	img, err := decodeTIFF(data)
	if err != nil {
		t.Fatalf("decodeTIFF: %v", err)
	}
	if r, _, _ := pixelAt(t, img, 0, 0); r != 0xAB {
		t.Errorf("16-bit sample decoded to %d, want high byte 0xAB", r)
	}
}

func TestDecodeTIFFRGB8(t *testing.T) {
	data := buildTestTIFF(t, rgbEntries(2, 1, photoRGB),
		[]byte{0x10, 0x20, 0x30, 0xFF, 0x00, 0x7F})

	img, err := decodeTIFF(data)
	if err != nil {
		t.Fatalf("decodeTIFF: %v", err)
	}
	if r, g, b := pixelAt(t, img, 0, 0); r != 0x10 || g != 0x20 || b != 0x30 {
		t.Errorf("pixel 0 = (%d,%d,%d), want (16,32,48)", r, g, b)
	}
	if r, g, b := pixelAt(t, img, 1, 0); r != 0xFF || g != 0x00 || b != 0x7F {
		t.Errorf("pixel 1 = (%d,%d,%d), want (255,0,127)", r, g, b)
	}
}

func TestDecodeTIFFYCbCr(t *testing.T) {
	// Neutral: y=128, cb=cr=128 decodes to mid gray. Red-ish: BT.601 for
	// pure red is roughly y=76, cb=84, cr=255.
	data := buildTestTIFF(t, rgbEntries(2, 1, photoYCbCr),
		[]byte{128, 128, 128, 76, 84, 255})

	img, err := decodeTIFF(data)
	if err != nil {
		t.Fatalf("decodeTIFF: %v", err)
	}

	r, g, b := pixelAt(t, img, 0, 0)
	if r != 128 || g != 128 || b != 128 {
		t.Errorf("neutral YCbCr = (%d,%d,%d), want (128,128,128)", r, g, b)
	}

	r, g, b = pixelAt(t, img, 1, 0)
	if r < 240 || g > 20 || b > 20 {
		t.Errorf("red YCbCr = (%d,%d,%d), want close to (255,0,0)", r, g, b)
	}
}

func TestDecodeTIFFRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]tiffEntry) []tiffEntry
		pixels  []byte
		entries []tiffEntry
	}{
		{
			name:    "compressed",
			entries: grayEntries(1, 1, 8, photoBlackIsZero),
			mutate: func(e []tiffEntry) []tiffEntry {
				for i := range e {
					if e[i].tag == tagCompression {
						e[i].values = []uint32{5} // LZW
					}
				}
				return e
			},
			pixels: []byte{0x00},
		},
		{
			name:    "subsampled YCbCr",
			entries: append(rgbEntries(1, 1, photoYCbCr), tiffEntry{tag: tagYCbCrSubSample, values: []uint32{2, 2}}),
			mutate:  func(e []tiffEntry) []tiffEntry { return e },
			pixels:  []byte{0, 0, 0},
		},
		{
			name:    "odd bit depth",
			entries: grayEntries(1, 1, 4, photoBlackIsZero),
			mutate:  func(e []tiffEntry) []tiffEntry { return e },
			pixels:  []byte{0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildTestTIFF(t, tt.mutate(tt.entries), tt.pixels)
			if _, err := decodeTIFF(data); err == nil {
				t.Error("expected decode error, got success")
			}
		})
	}
}

func TestDecodeTIFFRejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name            string
		width, height   uint32
		samplesPerPixel uint32
		photometric     uint32
	}{
		// width*height alone would wrap the size product negative and
		// crash the allocation if it were computed unchecked.
		{"overflowing product", 0xFFFFFFFF, 0xFFFFFFFF, 1, photoBlackIsZero},
		{"oversized width", 1 << 20, 4, 1, photoBlackIsZero},
		{"oversized height", 4, 1 << 20, 1, photoBlackIsZero},
		{"oversized pixel buffer", 16000, 16000, 3, photoRGB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits := []uint32{8}
			if tt.samplesPerPixel == 3 {
				bits = []uint32{8, 8, 8}
			}
			entries := []tiffEntry{
				{tag: tagImageWidth, values: []uint32{tt.width}, long: true},
				{tag: tagImageLength, values: []uint32{tt.height}, long: true},
				{tag: tagBitsPerSample, values: bits},
				{tag: tagCompression, values: []uint32{1}},
				{tag: tagPhotometric, values: []uint32{tt.photometric}},
				{tag: tagSamplesPerPixel, values: []uint32{tt.samplesPerPixel}},
			}
			data := buildTestTIFF(t, entries, []byte{0x00})
			if _, err := decodeTIFF(data); err == nil {
				t.Error("expected decode error, got success")
			}
		})
	}
}

func TestDecodeTIFFBadHeader(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("short"),
		[]byte("XX\x2a\x00\x08\x00\x00\x00"),
		[]byte("II\x2b\x00\x08\x00\x00\x00"),
	} {
		if _, err := decodeTIFF(data); err == nil {
			t.Errorf("decodeTIFF(%q) succeeded, want error", data)
		}
	}
}

func TestDecodeTIFFTruncatedPixels(t *testing.T) {
	data := buildTestTIFF(t, grayEntries(4, 4, 8, photoBlackIsZero), []byte{0x00, 0x01})
	if _, err := decodeTIFF(data); err == nil {
		t.Error("expected truncation error, got success")
	}
}
