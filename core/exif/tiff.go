// Package exif decodes the Exif metadata segment of a JPEG or TIFF file
// into addressable directory fields and patches field values in place.
//
// The codec never re-serialises the directory structure: a decoded Block
// keeps the raw segment bytes and mutation overwrites the fixed-width value
// slot of an existing entry. Encoding an unmodified block therefore
// reproduces the input byte for byte, and fields the schema does not
// recognise survive untouched.
package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DirID names the directories this tool addresses. Tags are unique only
// within their directory, so every lookup is a (directory, tag) pair.
type DirID string

const (
	DirIFD0 DirID = "IFD0"
	DirExif DirID = "Exif"
	DirGPS  DirID = "GPS"
)

// FieldType is the declared TIFF value type of a directory entry.
type FieldType uint16

const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
	TypeFloat     FieldType = 11
	TypeDouble    FieldType = 12
)

// size returns the byte width of one value of the type, or 0 if unknown.
func (t FieldType) size() int {
	switch t {
	case TypeByte, TypeASCII, TypeSByte, TypeUndefined:
		return 1
	case TypeShort, TypeSShort:
		return 2
	case TypeLong, TypeSLong, TypeFloat:
		return 4
	case TypeRational, TypeSRational, TypeDouble:
		return 8
	}
	return 0
}

// Rational is an unsigned TIFF rational value.
type Rational struct {
	Num uint32
	Den uint32
}

// span is a byte range within the segment.
type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// Field is one directory entry. The value itself lives in the Block's raw
// segment bytes at the recorded slot.
type Field struct {
	Tag   uint16
	Type  FieldType
	Count uint32

	slot span // zero for value types the codec cannot address
}

// Sub-IFD pointer tags in IFD0.
const (
	tagExifIFD uint16 = 0x8769
	tagGPSIFD  uint16 = 0x8825
)

// Block is a decoded metadata segment: the raw TIFF payload plus an index
// of the directory entries found in IFD0 and its Exif and GPS sub-IFDs.
type Block struct {
	seg   []byte
	order binary.ByteOrder
	dirs  map[DirID]map[uint16]*Field
	car   carrier
}

// Decode locates the Exif segment in a JPEG or bare TIFF byte stream and
// parses its directory structure. The returned Block references a private
// copy of the segment, so later mutation never aliases the caller's slice.
func Decode(data []byte) (*Block, error) {
	car, err := locateSegment(data)
	if err != nil {
		return nil, err
	}
	seg := append([]byte(nil), data[car.segStart:car.segEnd]...)

	if len(seg) < 8 {
		return nil, fmt.Errorf("%w: TIFF header truncated", ErrMalformedContainer)
	}
	var order binary.ByteOrder
	switch {
	case seg[0] == 'I' && seg[1] == 'I':
		order = binary.LittleEndian
	case seg[0] == 'M' && seg[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: unknown byte-order mark %q", ErrUnsupportedSchema, seg[:2])
	}
	if magic := order.Uint16(seg[2:4]); magic != 0x002A {
		return nil, fmt.Errorf("%w: TIFF magic %#04x", ErrUnsupportedSchema, magic)
	}

	b := &Block{
		seg:   seg,
		order: order,
		dirs:  map[DirID]map[uint16]*Field{},
		car:   car,
	}
	ifd0 := order.Uint32(seg[4:8])
	if err := b.readIFD(int(ifd0), DirIFD0, map[int]bool{}); err != nil {
		return nil, err
	}
	return b, nil
}

// readIFD parses one directory and follows the Exif/GPS sub-IFD pointers.
// Chained directories (the thumbnail IFD and beyond) are deliberately not
// indexed; their bytes round-trip untouched inside the raw segment.
func (b *Block) readIFD(off int, dir DirID, visited map[int]bool) error {
	if off < 8 || off+2 > len(b.seg) {
		return fmt.Errorf("%w: %s directory offset %d out of range", ErrMalformedContainer, dir, off)
	}
	if visited[off] {
		return nil
	}
	visited[off] = true

	n := int(b.order.Uint16(b.seg[off : off+2]))
	base := off + 2
	if base+n*12+4 > len(b.seg) {
		return fmt.Errorf("%w: %s directory truncated", ErrMalformedContainer, dir)
	}
	fields := b.dirs[dir]
	if fields == nil {
		fields = map[uint16]*Field{}
		b.dirs[dir] = fields
	}
	for i := 0; i < n; i++ {
		ent := base + i*12
		tag := b.order.Uint16(b.seg[ent : ent+2])
		typ := FieldType(b.order.Uint16(b.seg[ent+2 : ent+4]))
		count := b.order.Uint32(b.seg[ent+4 : ent+8])

		if dir == DirIFD0 && (tag == tagExifIFD || tag == tagGPSIFD) {
			sub := int(b.order.Uint32(b.seg[ent+8 : ent+12]))
			target := DirExif
			if tag == tagGPSIFD {
				target = DirGPS
			}
			if err := b.readIFD(sub, target, visited); err != nil {
				return err
			}
			continue
		}

		f := &Field{Tag: tag, Type: typ, Count: count}
		if sz := typ.size(); sz > 0 {
			total := int64(count) * int64(sz)
			if total <= 4 {
				f.slot = span{ent + 8, ent + 8 + int(total)}
			} else {
				voff := int64(b.order.Uint32(b.seg[ent+8 : ent+12]))
				if voff+total > int64(len(b.seg)) {
					return fmt.Errorf("%w: value of tag %#04x in %s out of range", ErrMalformedContainer, tag, dir)
				}
				f.slot = span{int(voff), int(voff + total)}
			}
		}
		fields[tag] = f
	}
	return nil
}

// HasDir reports whether the segment contains the given directory with at
// least one entry.
func (b *Block) HasDir(dir DirID) bool {
	return len(b.dirs[dir]) > 0
}

func (b *Block) field(dir DirID, tag uint16) (*Field, bool) {
	f, ok := b.dirs[dir][tag]
	if !ok || f.slot.len() == 0 {
		return nil, false
	}
	return f, true
}

// ASCII returns the string value of an ASCII field, without the trailing
// NUL. A missing tag or a non-ASCII declared type reads as absent.
func (b *Block) ASCII(dir DirID, tag uint16) (string, bool) {
	f, ok := b.field(dir, tag)
	if !ok || f.Type != TypeASCII {
		return "", false
	}
	raw := b.seg[f.slot.start:f.slot.end]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), true
}

// Rationals returns the values of an unsigned rational field. A missing tag
// or a different declared type reads as absent.
func (b *Block) Rationals(dir DirID, tag uint16) ([]Rational, bool) {
	f, ok := b.field(dir, tag)
	if !ok || f.Type != TypeRational {
		return nil, false
	}
	out := make([]Rational, 0, f.Count)
	for off := f.slot.start; off+8 <= f.slot.end; off += 8 {
		out = append(out, Rational{
			Num: b.order.Uint32(b.seg[off : off+4]),
			Den: b.order.Uint32(b.seg[off+4 : off+8]),
		})
	}
	return out, true
}

// SetASCII overwrites the value slot of an existing ASCII field. The
// NUL-terminated encoding of s must occupy exactly the slot's width;
// anything else is an encoding overflow, since the codec does not
// restructure directories.
func (b *Block) SetASCII(dir DirID, tag uint16, s string) error {
	f, ok := b.field(dir, tag)
	if !ok {
		return fmt.Errorf("%w: tag %#04x not present in %s", ErrEncodingOverflow, tag, dir)
	}
	if f.Type != TypeASCII {
		return fmt.Errorf("%w: tag %#04x in %s has type %d, want ASCII", ErrEncodingOverflow, tag, dir, f.Type)
	}
	enc := append([]byte(s), 0)
	if len(enc) != f.slot.len() {
		return fmt.Errorf("%w: value %q needs %d bytes, slot holds %d", ErrEncodingOverflow, s, len(enc), f.slot.len())
	}
	copy(b.seg[f.slot.start:f.slot.end], enc)
	return nil
}

// SetRationals overwrites the value slot of an existing unsigned rational
// field. The number of values must match the entry's declared count.
func (b *Block) SetRationals(dir DirID, tag uint16, vals []Rational) error {
	f, ok := b.field(dir, tag)
	if !ok {
		return fmt.Errorf("%w: tag %#04x not present in %s", ErrEncodingOverflow, tag, dir)
	}
	if f.Type != TypeRational {
		return fmt.Errorf("%w: tag %#04x in %s has type %d, want RATIONAL", ErrEncodingOverflow, tag, dir, f.Type)
	}
	if len(vals) != int(f.Count) {
		return fmt.Errorf("%w: %d values for tag %#04x, entry declares %d", ErrEncodingOverflow, len(vals), tag, f.Count)
	}
	off := f.slot.start
	for _, v := range vals {
		b.order.PutUint32(b.seg[off:off+4], v.Num)
		b.order.PutUint32(b.seg[off+4:off+8], v.Den)
		off += 8
	}
	return nil
}

// Encode returns the segment bytes, reflecting any in-place patches. With
// no mutations the result is byte-identical to the decoded input.
func (b *Block) Encode() []byte {
	return append([]byte(nil), b.seg...)
}
