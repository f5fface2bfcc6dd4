// Package exiftest builds synthetic Exif segments and JPEG wrappers for
// tests. The layout is deliberately plain: IFD0 first, then the Exif and
// GPS sub-IFDs, each followed by its out-of-line values.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// TIFF value types used by the builder.
const (
	typeASCII    uint16 = 2
	typeLong     uint16 = 4
	typeRational uint16 = 5
)

// Field is one directory entry to encode.
type Field struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte // raw value bytes in the segment's byte order
}

// ASCII returns a NUL-terminated ASCII field.
func ASCII(tag uint16, s string) Field {
	v := append([]byte(s), 0)
	return Field{Tag: tag, Type: typeASCII, Count: uint32(len(v)), Value: v}
}

// Rationals returns an unsigned rational field. Pairs are (num, den).
func Rationals(order binary.ByteOrder, tag uint16, pairs ...[2]uint32) Field {
	v := make([]byte, 0, len(pairs)*8)
	for _, p := range pairs {
		var b [8]byte
		order.PutUint32(b[0:4], p[0])
		order.PutUint32(b[4:8], p[1])
		v = append(v, b[:]...)
	}
	return Field{Tag: tag, Type: typeRational, Count: uint32(len(pairs)), Value: v}
}

// Raw returns a field with an arbitrary type and value, for vendor tags and
// malformed-input cases.
func Raw(tag, typ uint16, count uint32, value []byte) Field {
	return Field{Tag: tag, Type: typ, Count: count, Value: value}
}

const (
	tagExifIFD uint16 = 0x8769
	tagGPSIFD  uint16 = 0x8825
)

// TIFF assembles a complete TIFF block. exifFields and gpsFields may be nil
// to omit the corresponding sub-IFD; pointer entries in IFD0 are added
// automatically.
func TIFF(order binary.ByteOrder, ifd0, exifFields, gpsFields []Field) []byte {
	// section sizes: each IFD is count + entries + next pointer, followed
	// by its out-of-line values padded to even offsets
	ifdLen := func(fs []Field, extra int) int { return 2 + (len(fs)+extra)*12 + 4 }
	valLen := func(fs []Field) int {
		n := 0
		for _, f := range fs {
			if len(f.Value) > 4 {
				n += len(f.Value)
				if n%2 != 0 {
					n++
				}
			}
		}
		return n
	}

	extra := 0
	if exifFields != nil {
		extra++
	}
	if gpsFields != nil {
		extra++
	}
	ifd0Start := 8
	exifStart := ifd0Start + ifdLen(ifd0, extra) + valLen(ifd0)
	gpsStart := exifStart
	if exifFields != nil {
		gpsStart += ifdLen(exifFields, 0) + valLen(exifFields)
	}

	pointer := func(tag uint16, off int) Field {
		var v [4]byte
		order.PutUint32(v[:], uint32(off))
		return Field{Tag: tag, Type: typeLong, Count: 1, Value: v[:]}
	}
	all0 := append([]Field(nil), ifd0...)
	if exifFields != nil {
		all0 = append(all0, pointer(tagExifIFD, exifStart))
	}
	if gpsFields != nil {
		all0 = append(all0, pointer(tagGPSIFD, gpsStart))
	}

	var buf bytes.Buffer
	if order == binary.LittleEndian {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	hdr := make([]byte, 6)
	order.PutUint16(hdr[0:2], 0x002A)
	order.PutUint32(hdr[2:6], uint32(ifd0Start))
	buf.Write(hdr)

	writeIFD(&buf, order, all0, ifd0Start)
	if exifFields != nil {
		writeIFD(&buf, order, exifFields, exifStart)
	}
	if gpsFields != nil {
		writeIFD(&buf, order, gpsFields, gpsStart)
	}
	return buf.Bytes()
}

func writeIFD(buf *bytes.Buffer, order binary.ByteOrder, fields []Field, start int) {
	fs := append([]Field(nil), fields...)
	sort.Slice(fs, func(i, j int) bool { return fs[i].Tag < fs[j].Tag })

	var b2 [2]byte
	var b4 [4]byte
	order.PutUint16(b2[:], uint16(len(fs)))
	buf.Write(b2[:])

	valOff := start + 2 + len(fs)*12 + 4
	var values bytes.Buffer
	for _, f := range fs {
		order.PutUint16(b2[:], f.Tag)
		buf.Write(b2[:])
		order.PutUint16(b2[:], f.Type)
		buf.Write(b2[:])
		order.PutUint32(b4[:], f.Count)
		buf.Write(b4[:])
		if len(f.Value) <= 4 {
			var inline [4]byte
			copy(inline[:], f.Value)
			buf.Write(inline[:])
		} else {
			order.PutUint32(b4[:], uint32(valOff+values.Len()))
			buf.Write(b4[:])
			values.Write(f.Value)
			if values.Len()%2 != 0 {
				values.WriteByte(0)
			}
		}
	}
	order.PutUint32(b4[:], 0) // no chained IFD
	buf.Write(b4[:])
	buf.Write(values.Bytes())
}

// JPEG wraps a TIFF block in a minimal JPEG stream: SOI, the APP1 Exif
// segment, a stub scan and EOI.
func JPEG(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	segLen := 2 + 6 + len(tiff)
	buf.Write([]byte{0xFF, 0xE1, byte(segLen >> 8), byte(segLen)})
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	// stub SOS header plus a few bytes of scan data
	buf.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	buf.Write([]byte{0x12, 0x34, 0x56, 0x78})
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}
