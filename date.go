package fat12

import "time"

// Clock returns the current time. FS uses it to stamp directory entries on
// create/write so tests can inject a deterministic value instead of relying
// on the wall clock.
type Clock func() time.Time

// ParseDate reads the given input as a date like it is specified in the FAT
// specification:
//
//	Bits 0-4: Day of month, valid value range 1-31 inclusive.
//	Bits 5-8: Month of year, 1 = January, valid value range 1-12 inclusive.
//	Bits 9-15: Count of years from 1980, valid value range 0-127 inclusive (1980-2107).
//
// It returns a time.Time with a time of 00:00:00 UTC. If dayOfMonth or
// monthOfYear is 0 (unspecified by the FAT spec) it returns the zero
// time.Time, so callers can test with time.Time.IsZero().
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads the given input as a time like it is specified in the FAT
// specification:
//
//	Bits 0-4: 2-second count, valid value range 0-29 inclusive (0-58 seconds).
//	Bits 5-10: Minutes, valid value range 0-59 inclusive.
//	Bits 11-15: Hours, valid value range 0-23 inclusive.
//
// It returns a time.Time with a date of January 1, year 1, so a zero
// hour/minute/second is indistinguishable from time.Time.IsZero(). Overflow
// beyond 23:59:58 is clamped to 23:59:59, mirroring the rare case of an
// invalid time field.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// FormatDate encodes t into the 16-bit FAT date field. Years before 1980 or
// after 2107 are clamped into the representable range.
func FormatDate(t time.Time) uint16 {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	if year > 0x7F {
		year = 0x7F
	}
	return uint16(year)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

// FormatTime encodes t into the 16-bit FAT time field, truncating seconds to
// a 2-second granularity as the format requires.
func FormatTime(t time.Time) uint16 {
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}
