// Package gpsfix recomputes the GPS date/time stamps of an image from its
// capture timestamp.
//
// Certain devices write a fixed, wrong GPS date (an epoch-adjacent value
// such as 2038-01-18) while DateTimeOriginal stays correct. The true GPS
// fix time is unrecoverable, so the capture timestamp, shifted to UTC by a
// user-supplied offset, is substituted as the best available proxy.
package gpsfix

import (
	"fmt"
	"time"

	"github.com/ankit-chaubey/gps-datetime-surgery/core/exif"
)

// Exif 2.31 tags this tool reads and writes.
const (
	// tagDateTimeOriginal: ASCII "YYYY:MM:DD HH:MM:SS", 24h local time.
	tagDateTimeOriginal uint16 = 0x9003
	// tagGPSTimeStamp: three RATIONALs (hours, minutes, seconds), 24h UTC.
	tagGPSTimeStamp uint16 = 0x0007
	// tagGPSDateStamp: ASCII "YYYY:MM:DD", UTC.
	tagGPSDateStamp uint16 = 0x001D
)

const (
	captureLayout = "2006:01:02 15:04:05"
	gpsDateLayout = "2006:01:02"
)

// CaptureTimestamp reads DateTimeOriginal as a naive local time. Anything
// that does not match the schema's exact pattern reads as absent; the
// caller skips the file instead of erroring.
func CaptureTimestamp(b *exif.Block) (time.Time, bool) {
	s, ok := b.ASCII(exif.DirExif, tagDateTimeOriginal)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(captureLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GPSTimestamp reads the stored GPSDateStamp/GPSTimeStamp pair as a UTC
// time, truncated to whole seconds.
func GPSTimestamp(b *exif.Block) (time.Time, bool) {
	ds, ok := b.ASCII(exif.DirGPS, tagGPSDateStamp)
	if !ok {
		return time.Time{}, false
	}
	d, err := time.Parse(gpsDateLayout, ds)
	if err != nil {
		return time.Time{}, false
	}
	rats, ok := b.Rationals(exif.DirGPS, tagGPSTimeStamp)
	if !ok || len(rats) != 3 {
		return time.Time{}, false
	}
	var hms [3]int
	for i, r := range rats {
		if r.Den == 0 {
			return time.Time{}, false
		}
		hms[i] = int(r.Num / r.Den)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hms[0], hms[1], hms[2], 0, time.UTC), true
}

// CorrectedGPS converts a local capture timestamp to the UTC stamp pair by
// subtracting the offset. time.Time carries whole seconds exactly, so
// minute/hour carry and day, month and year rollover all fall out of the
// subtraction.
func CorrectedGPS(capture time.Time, off Offset) (string, [3]exif.Rational) {
	utc := capture.Add(-off.Duration())
	h, m, s := utc.Clock()
	return utc.Format(gpsDateLayout), [3]exif.Rational{
		{Num: uint32(h), Den: 1},
		{Num: uint32(m), Den: 1},
		{Num: uint32(s), Den: 1},
	}
}

// NeedsFix reports whether the stored GPS stamps disagree with the capture
// timestamp under the given offset by more than one second. The tolerance
// keeps already-corrected images and genuine near-capture GPS fixes from
// being flagged again.
func NeedsFix(b *exif.Block, off Offset) bool {
	capture, ok := CaptureTimestamp(b)
	if !ok {
		return false
	}
	existing, ok := GPSTimestamp(b)
	if !ok {
		return false
	}
	diff := existing.Sub(capture.Add(-off.Duration()))
	if diff < 0 {
		diff = -diff
	}
	return diff > time.Second
}

// ApplyFix overwrites GPSDateStamp and GPSTimeStamp with the corrected UTC
// values. Every other field, DateTimeOriginal included, stays untouched.
func ApplyFix(b *exif.Block, off Offset) error {
	capture, ok := CaptureTimestamp(b)
	if !ok {
		return fmt.Errorf("image has no usable DateTimeOriginal")
	}
	date, hms := CorrectedGPS(capture, off)
	if err := b.SetASCII(exif.DirGPS, tagGPSDateStamp, date); err != nil {
		return err
	}
	return b.SetRationals(exif.DirGPS, tagGPSTimeStamp, hms[:])
}
