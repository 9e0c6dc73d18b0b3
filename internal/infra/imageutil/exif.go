package imageutil

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIFRecord holds the subset of EXIF fields the photo index cares about.
// Every field is best-effort: a photo with no EXIF segment, a stripped
// segment, or a malformed tag yields a zero-value EXIFRecord rather than
// an error, since EXIF absence is routine for screenshots and
// app-exported images and must never block ingestion.
type EXIFRecord struct {
	TakenAt   time.Time // zero if absent
	Latitude  float64
	Longitude float64
	HasGPS    bool
	Make      string
	Model     string
}

// ExtractEXIF reads whatever EXIF metadata is present in data. It never
// returns an error: ingestion proceeds identically whether or not EXIF
// is readable.
func ExtractEXIF(data []byte) EXIFRecord {
	var rec EXIFRecord

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return rec
	}

	if t, err := x.DateTime(); err == nil {
		rec.TakenAt = t
	}

	if lat, long, err := x.LatLong(); err == nil {
		rec.Latitude = lat
		rec.Longitude = long
		rec.HasGPS = true
	}

	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			rec.Make = s
		}
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			rec.Model = s
		}
	}

	return rec
}
