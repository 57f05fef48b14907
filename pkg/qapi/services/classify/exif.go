package classify

import (
	"bytes"
	"strings"
	"time"

	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/rwcarlsen/goexif/exif"
)

// CaptureTime returns the wall-clock time a photo was taken, from its EXIF
// DateTimeOriginal (or DateTime) tag. The clock reading is kept as-is and
// reported in UTC, since meal buckets depend on the local hour.
func CaptureTime(img []byte) (time.Time, bool) {
	x, err := exif.Decode(bytes.NewReader(img))
	if err != nil {
		return time.Time{}, false
	}
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, err := time.Parse(qnutri.ExifTimeLayout, strings.TrimRight(s, "\x00 ")); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
