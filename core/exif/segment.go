package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// carrierKind identifies the container the Exif segment was found in.
type carrierKind int

const (
	carrierJPEG carrierKind = iota
	carrierTIFF
)

// carrier records where the TIFF payload sits inside the original file so
// the patched segment can be spliced back without touching anything else.
type carrier struct {
	kind carrierKind
	// lenOff is the offset of the APP1 two-byte length prefix (JPEG only).
	lenOff int
	// segStart/segEnd delimit the TIFF payload within the file. For a bare
	// TIFF carrier the payload is the whole file.
	segStart int
	segEnd   int
}

var exifHeader = []byte("Exif\x00\x00")

// locateSegment finds the TIFF payload in a JPEG (APP1 "Exif") or bare TIFF
// byte stream.
func locateSegment(data []byte) (carrier, error) {
	if len(data) >= 4 && (bytes.HasPrefix(data, []byte("II")) || bytes.HasPrefix(data, []byte("MM"))) {
		return carrier{kind: carrierTIFF, segStart: 0, segEnd: len(data)}, nil
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return carrier{}, fmt.Errorf("%w: not a JPEG or TIFF image", ErrMalformedContainer)
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			// fill bytes are legal between segments
			i++
			continue
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			// padding before a marker
			i++
			continue
		case marker == 0xD9 || marker == 0xDA:
			// EOI / start of scan: no Exif segment ahead of the image data
			return carrier{}, fmt.Errorf("%w: no Exif segment", ErrMalformedContainer)
		case marker >= 0xD0 && marker <= 0xD7:
			// standalone restart markers carry no length
			i += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return carrier{}, fmt.Errorf("%w: truncated segment at offset %d", ErrMalformedContainer, i)
		}
		if marker == 0xE1 && segLen >= 2+len(exifHeader) && bytes.Equal(data[i+4:i+4+len(exifHeader)], exifHeader) {
			return carrier{
				kind:     carrierJPEG,
				lenOff:   i + 2,
				segStart: i + 4 + len(exifHeader),
				segEnd:   i + 2 + segLen,
			}, nil
		}
		i += 2 + segLen
	}
	return carrier{}, fmt.Errorf("%w: no Exif segment", ErrMalformedContainer)
}

// Splice rebuilds the file byte stream with the block's (possibly patched)
// segment in place of the original one. The APP1 length prefix is recomputed;
// every byte outside the segment is preserved verbatim.
func (b *Block) Splice(file []byte) ([]byte, error) {
	c := b.car
	if c.segEnd > len(file) {
		return nil, fmt.Errorf("%w: file shorter than decoded segment", ErrMalformedContainer)
	}
	seg := b.Encode()

	if c.kind == carrierTIFF {
		return seg, nil
	}

	segLen := 2 + len(exifHeader) + len(seg)
	if segLen > 0xFFFF {
		return nil, fmt.Errorf("%w: Exif segment exceeds 64 KiB", ErrEncodingOverflow)
	}
	out := make([]byte, 0, len(file)-(c.segEnd-c.segStart)+len(seg))
	out = append(out, file[:c.lenOff]...)
	out = append(out, byte(segLen>>8), byte(segLen))
	out = append(out, exifHeader...)
	out = append(out, seg...)
	out = append(out, file[c.segEnd:]...)
	return out, nil
}
