package exif

import "errors"

// Decode and patch failures fall into one of three families. Callers
// classify with errors.Is; the wrapped message carries the detail.
var (
	// ErrMalformedContainer means the bytes are not a recognised image
	// container, or the metadata segment inside it is truncated.
	ErrMalformedContainer = errors.New("malformed image container")

	// ErrUnsupportedSchema means an Exif segment was found but its TIFF
	// byte-order mark or magic number is not recognised.
	ErrUnsupportedSchema = errors.New("unsupported metadata schema")

	// ErrEncodingOverflow means a replacement value cannot be written into
	// the fixed-width slot the existing directory entry occupies.
	ErrEncodingOverflow = errors.New("encoding overflow")
)
