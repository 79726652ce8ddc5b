package imageproc

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Exif holds the metadata the newsroom uses from an image file.
type Exif struct {
	Tags        map[string]any
	Description string
	Artist      string
	Copyright   string
	DateTime    time.Time
}

// Credit returns the copyright notice, or the artist when there is none.
func (e Exif) Credit() string {
	if e.Copyright != "" {
		return e.Copyright
	}
	return e.Artist
}

// HasExif reports whether data carries an EXIF block.
func HasExif(data []byte) bool {
	x, _ := exif.Decode(bytes.NewReader(data))
	return x != nil
}

// ReadExif extracts EXIF tags from data. Files without EXIF give an empty
// result and no error.
func ReadExif(data []byte) (Exif, error) {
	out := Exif{Tags: map[string]any{}}
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		// nothing usable: png, stripped jpeg or a corrupt header
		return out, nil
	}
	if err != nil && exif.IsCriticalError(err) {
		return out, nil
	}

	raw, err := x.MarshalJSON()
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out.Tags); err != nil {
		return out, err
	}
	// binary blobs are useless in the database
	delete(out.Tags, "MakerNote")
	delete(out.Tags, "UserComment")

	out.Description = tagString(x, exif.ImageDescription)
	out.Artist = tagString(x, exif.Artist)
	out.Copyright = tagString(x, exif.Copyright)
	if t, err := x.DateTime(); err == nil {
		out.DateTime = t
	}
	return out, nil
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
