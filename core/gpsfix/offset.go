package gpsfix

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Offset is a timezone offset east of UTC in whole minutes. Capture
// timestamps carry no zone, so the offset is supplied by the user once per
// run and applied to every file.
type Offset int

// Real-world UTC offsets span -12:00 to +14:00.
const (
	minOffsetMinutes = -12 * 60
	maxOffsetMinutes = 14 * 60
)

var offsetPattern = regexp.MustCompile(`^[+-][0-2][0-9][0-5][0-9]$`)

// ParseOffset parses a "+HHMM"/"-HHMM" literal. Failure here is a
// precondition error for the whole run, never a per-file outcome.
func ParseOffset(s string) (Offset, error) {
	if !offsetPattern.MatchString(s) {
		return 0, fmt.Errorf("timezone %q is not in {+|-}HHMM form", s)
	}
	hours, _ := strconv.Atoi(s[1:3])
	mins, _ := strconv.Atoi(s[3:5])
	total := hours*60 + mins
	if s[0] == '-' {
		total = -total
	}
	if total < minOffsetMinutes || total > maxOffsetMinutes {
		return 0, fmt.Errorf("timezone %s is outside the valid UTC offset range -1200..+1400", s)
	}
	return Offset(total), nil
}

// Duration returns the offset as a time.Duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o) * time.Minute
}

func (o Offset) String() string {
	sign := byte('+')
	m := int(o)
	if m < 0 {
		sign = '-'
		m = -m
	}
	return fmt.Sprintf("%c%02d%02d", sign, m/60, m%60)
}
