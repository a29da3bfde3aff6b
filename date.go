package bootfat

import (
	"time"
)

// ParseDate reads the given input as a FAT date stamp:
//  Bits 0-4: Day of month, valid value range 1-31 inclusive.
//  Bits 5-8: Month of year, 1 = January, valid value range 1-12 inclusive.
//  Bits 9-15: Count of years from 1980, valid value range 0-127 inclusive.
// It returns a time.Time which always has a time of 00:00:00 UTC.
//
// As value 0 for day and month is invalid per the on-disk format, time.Time{}
// is returned in that case so that time.Time.IsZero() can be used.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads the given input as a FAT time stamp with a granularity of
// two seconds:
//  Bits 0-4: 2-second count, valid value range 0-29 inclusive.
//  Bits 5-10: Minutes, valid value range 0-59 inclusive.
//  Bits 11-15: Hours, valid value range 0-23 inclusive.
// It returns a time.Time which always has a date of January 1, year 1.
//
// Values bigger than the specified ranges are just added to the time,
// limited to 23:59:59.
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

// EncodeDate converts t to a FAT date stamp. Dates before 1980 and after
// 2107 cannot be represented and are clamped to the nearest representable
// date.
func EncodeDate(t time.Time) uint16 {
	t = t.UTC()

	year := t.Year()
	if year < 1980 {
		return 1<<5 | 1
	}
	if year > 2107 {
		year = 2107
	}

	return uint16(year-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

// EncodeTime converts t to a FAT time stamp. The seconds are stored with a
// granularity of two seconds, the odd second is dropped.
func EncodeTime(t time.Time) uint16 {
	t = t.UTC()

	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}
