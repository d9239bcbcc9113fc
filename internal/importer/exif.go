package importer

import (
	"os"
	"strings"

	"photofind/internal/logging"
	"photofind/internal/registry"

	"github.com/rwcarlsen/goexif/exif"
)

// exifRows reads capture metadata from the media file a sidecar describes.
// Only JPEG companions are probed; RAW containers need their own readers and
// the sidecar usually carries the interesting fields anyway. Missing files
// and undecodable EXIF are not errors, just nothing to add.
func exifRows(mediaPath string) []registry.KeyValue {
	ext := strings.ToLower(mediaPath)
	if !strings.HasSuffix(ext, ".jpg") && !strings.HasSuffix(ext, ".jpeg") {
		return nil
	}

	f, err := os.Open(mediaPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		logging.Debug("No EXIF data in %s: %v", mediaPath, err)
		return nil
	}

	var rows []registry.KeyValue
	for _, field := range []struct {
		key string
		tag exif.FieldName
	}{
		{"exif:DateTimeOriginal", exif.DateTimeOriginal},
		{"exif:Model", exif.Model},
	} {
		tag, err := x.Get(field.tag)
		if err != nil {
			continue
		}
		if value, err := tag.StringVal(); err == nil && value != "" {
			rows = append(rows, registry.KeyValue{Key: field.key, Value: value})
		}
	}
	return rows
}
