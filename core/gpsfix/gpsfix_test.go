package gpsfix

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ankit-chaubey/gps-datetime-surgery/core/exif"
	"github.com/ankit-chaubey/gps-datetime-surgery/core/exif/exiftest"
)

// testSegment builds a TIFF segment with the given stamps. Empty strings
// and a nil gpsTime omit the corresponding field.
func testSegment(dto, gpsDate string, gpsTime *[3]uint32) []byte {
	order := binary.LittleEndian
	var exifFields, gpsFields []exiftest.Field
	if dto != "" {
		exifFields = []exiftest.Field{exiftest.ASCII(tagDateTimeOriginal, dto)}
	}
	if gpsDate != "" {
		gpsFields = append(gpsFields, exiftest.ASCII(tagGPSDateStamp, gpsDate))
	}
	if gpsTime != nil {
		gpsFields = append(gpsFields, exiftest.Rationals(order, tagGPSTimeStamp,
			[2]uint32{gpsTime[0], 1}, [2]uint32{gpsTime[1], 1}, [2]uint32{gpsTime[2], 1}))
	}
	return exiftest.TIFF(order, nil, exifFields, gpsFields)
}

func testBlock(t *testing.T, dto, gpsDate string, gpsTime *[3]uint32) *exif.Block {
	t.Helper()
	b, err := exif.Decode(testSegment(dto, gpsDate, gpsTime))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return b
}

func mustOffset(t *testing.T, s string) Offset {
	t.Helper()
	off, err := ParseOffset(s)
	if err != nil {
		t.Fatalf("ParseOffset(%q) failed: %v", s, err)
	}
	return off
}

func TestParseOffset(t *testing.T) {
	valid := map[string]int{
		"+0000": 0,
		"-0700": -420,
		"+0200": 120,
		"+0930": 570,
		"+1400": 840,
		"-1200": -720,
	}
	for s, want := range valid {
		off, err := ParseOffset(s)
		if err != nil {
			t.Errorf("ParseOffset(%q): %v", s, err)
			continue
		}
		if int(off) != want {
			t.Errorf("ParseOffset(%q) = %d, want %d", s, off, want)
		}
		if off.String() != s {
			t.Errorf("Offset(%d).String() = %q, want %q", off, off.String(), s)
		}
	}

	invalid := []string{"", "0700", "+700", "UTC", "+07:00", "+0760", "+3000", "+1401", "-1201", "+abcd"}
	for _, s := range invalid {
		if _, err := ParseOffset(s); err == nil {
			t.Errorf("ParseOffset(%q) accepted invalid input", s)
		}
	}
}

func TestCorrectedGPS(t *testing.T) {
	cases := []struct {
		capture  string
		offset   string
		wantDate string
		wantHMS  [3]uint32
	}{
		// plain conversion west of UTC
		{"2023:06:15 14:30:00", "-0700", "2023:06:15", [3]uint32{21, 30, 0}},
		// east of UTC, same day
		{"2023:06:15 23:45:00", "+0200", "2023:06:15", [3]uint32{21, 45, 0}},
		// year rollover backwards
		{"2023:01:01 00:30:00", "+0200", "2022:12:31", [3]uint32{22, 30, 0}},
		// year rollover forwards
		{"2023:12:31 23:30:00", "-0100", "2024:01:01", [3]uint32{0, 30, 0}},
		// half-hour offset with minute carry
		{"2023:03:01 00:15:00", "+0930", "2023:02:28", [3]uint32{14, 45, 0}},
		// leap day
		{"2024:03:01 00:15:00", "+0930", "2024:02:29", [3]uint32{14, 45, 0}},
	}
	for _, c := range cases {
		capture, err := time.Parse("2006:01:02 15:04:05", c.capture)
		if err != nil {
			t.Fatalf("bad test input %q: %v", c.capture, err)
		}
		date, hms := CorrectedGPS(capture, mustOffset(t, c.offset))
		if date != c.wantDate {
			t.Errorf("%s %s: date = %q, want %q", c.capture, c.offset, date, c.wantDate)
		}
		for i := range hms {
			if hms[i].Num != c.wantHMS[i] || hms[i].Den != 1 {
				t.Errorf("%s %s: time = %v, want %v with denominator 1", c.capture, c.offset, hms, c.wantHMS)
				break
			}
		}
	}
}

func TestCaptureTimestamp(t *testing.T) {
	b := testBlock(t, "2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0})
	got, ok := CaptureTimestamp(b)
	if !ok {
		t.Fatalf("expected capture timestamp present")
	}
	want := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("CaptureTimestamp = %v, want %v", got, want)
	}

	if _, ok := CaptureTimestamp(testBlock(t, "", "2038:01:18", &[3]uint32{3, 14, 0})); ok {
		t.Fatalf("missing DateTimeOriginal must read as absent")
	}
	if _, ok := CaptureTimestamp(testBlock(t, "2023-06-15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0})); ok {
		t.Fatalf("malformed DateTimeOriginal must read as absent, not error")
	}
}

func TestGPSTimestamp(t *testing.T) {
	b := testBlock(t, "2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 7})
	got, ok := GPSTimestamp(b)
	if !ok {
		t.Fatalf("expected GPS timestamp present")
	}
	want := time.Date(2038, 1, 18, 3, 14, 7, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("GPSTimestamp = %v, want %v", got, want)
	}

	if _, ok := GPSTimestamp(testBlock(t, "2023:06:15 14:30:00", "", &[3]uint32{3, 14, 7})); ok {
		t.Fatalf("missing GPSDateStamp must read as absent")
	}
	if _, ok := GPSTimestamp(testBlock(t, "2023:06:15 14:30:00", "2038:01:18", nil)); ok {
		t.Fatalf("missing GPSTimeStamp must read as absent")
	}
}

func TestNeedsFix(t *testing.T) {
	off := mustOffset(t, "-0700")

	// the firmware bug: epoch-adjacent GPS date
	if !NeedsFix(testBlock(t, "2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0}), off) {
		t.Errorf("buggy stamps must need a fix")
	}
	// exact match
	if NeedsFix(testBlock(t, "2023:06:15 14:30:00", "2023:06:15", &[3]uint32{21, 30, 0}), off) {
		t.Errorf("matching stamps must not need a fix")
	}
	// one second of skew is within tolerance
	if NeedsFix(testBlock(t, "2023:06:15 14:30:00", "2023:06:15", &[3]uint32{21, 30, 1}), off) {
		t.Errorf("one second of skew must be tolerated")
	}
	// two seconds is not
	if !NeedsFix(testBlock(t, "2023:06:15 14:30:00", "2023:06:15", &[3]uint32{21, 30, 2}), off) {
		t.Errorf("two seconds of skew must be flagged")
	}
	// nothing to compare against
	if NeedsFix(testBlock(t, "", "2038:01:18", &[3]uint32{3, 14, 0}), off) {
		t.Errorf("missing capture timestamp must not be flagged")
	}
	if NeedsFix(testBlock(t, "2023:06:15 14:30:00", "", nil), off) {
		t.Errorf("missing GPS stamps must not be flagged")
	}
}

func TestApplyFixIdempotent(t *testing.T) {
	off := mustOffset(t, "+0200")
	b := testBlock(t, "2023:01:01 00:30:00", "2038:01:18", &[3]uint32{3, 14, 0})

	if err := ApplyFix(b, off); err != nil {
		t.Fatalf("ApplyFix failed: %v", err)
	}
	if date, _ := b.ASCII(exif.DirGPS, tagGPSDateStamp); date != "2022:12:31" {
		t.Fatalf("GPSDateStamp = %q, want 2022:12:31", date)
	}
	got, ok := GPSTimestamp(b)
	if !ok || !got.Equal(time.Date(2022, 12, 31, 22, 30, 0, 0, time.UTC)) {
		t.Fatalf("GPSTimestamp after fix = %v, %v", got, ok)
	}
	if NeedsFix(b, off) {
		t.Fatalf("NeedsFix must be false after one fix")
	}

	first := b.Encode()
	if err := ApplyFix(b, off); err != nil {
		t.Fatalf("second ApplyFix failed: %v", err)
	}
	if !bytes.Equal(b.Encode(), first) {
		t.Fatalf("second ApplyFix changed bytes")
	}

	// DateTimeOriginal itself stays untouched
	if s, _ := b.ASCII(exif.DirExif, tagDateTimeOriginal); s != "2023:01:01 00:30:00" {
		t.Fatalf("DateTimeOriginal was disturbed: %q", s)
	}
}
