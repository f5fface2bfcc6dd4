package core

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// FormatID enumerates the image containers the tool can patch.
type FormatID string

const (
	FmtJPEG    FormatID = "jpeg"
	FmtTIFF    FormatID = "tiff"
	FmtUnknown FormatID = "unknown"
)

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".jpe":  FmtJPEG,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
}

// DetectFormat returns the FormatID for the given file, first by reading
// magic bytes and falling back to extension.
func DetectFormat(path string) (FormatID, error) {
	f, err := os.Open(path)
	if err != nil {
		return FmtUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return FmtUnknown, err
	}
	buf = buf[:n]

	if id := detectMagic(buf); id != FmtUnknown {
		return id, nil
	}

	dot := strings.LastIndex(path, ".")
	if dot >= 0 {
		if id, ok := extMap[strings.ToLower(path[dot:])]; ok {
			return id, nil
		}
	}
	return FmtUnknown, nil
}

func detectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// TIFF: 49 49 2A 00 (little-endian) or 4D 4D 00 2A (big-endian)
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FmtTIFF
	}
	return FmtUnknown
}

// IsImage reports whether the file looks like a container this tool can
// patch. Directory walks use it to filter candidates; explicitly named
// files are always processed so the user sees a per-file error instead.
func IsImage(path string) bool {
	id, err := DetectFormat(path)
	return err == nil && id != FmtUnknown
}
