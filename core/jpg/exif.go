// Package jpg exposes a goexif-backed view of the fields relevant to GPS
// timestamp repair, for the interactive diff display.
package jpg

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/gps-datetime-surgery/core"
)

// Fields shown as context when confirming a fix.
var contextFields = map[exif.FieldName]bool{
	exif.Make:             true,
	exif.Model:            true,
	exif.DateTime:         true,
	exif.DateTimeOriginal: true,
	exif.GPSDateStamp:     true,
	exif.GPSTimeStamp:     true,
}

// TimestampFields reads the timestamp-related EXIF fields of an image.
func TimestampFields(path string) ([]core.MetaField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	w := &walker{}
	x.Walk(w)
	return w.fields, nil
}

type walker struct {
	fields []core.MetaField
}

func (w *walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if !contextFields[name] {
		return nil
	}
	val := tag.String()
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	w.fields = append(w.fields, core.MetaField{
		Key:      string(name),
		Value:    val,
		Category: "EXIF",
	})
	return nil
}
