// Package imaging provides capture-time extraction, upload naming, and
// preview rendering for guest photos.
package imaging

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// CaptureTime returns the embedded capture timestamp of an image, preferring
// the original capture time over the digitized one. Files without usable
// metadata fall back to the provided modification time. Result is UTC.
func CaptureTime(r io.Reader, modTime time.Time) time.Time {
	x, err := exif.Decode(r)
	if err != nil {
		return modTime.UTC()
	}
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if ts, err := time.Parse(exifTimeLayout, raw); err == nil {
			return ts.UTC()
		}
	}
	return modTime.UTC()
}
