package typelib

import (
	"fmt"
	"math"
	"time"

	"fortio.org/safecast"
)

// Date is a calendar date with no time-of-day and no location. It
// marshals to its ISO-8601 form, e.g. "2006-01-02".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{y, m, d}
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Time returns the instant at midnight of d in loc. A nil loc means
// UTC.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay is a wall-clock time with no date and no location. It
// marshals to its ISO-8601 form, e.g. "15:04:05" or "15:04:05.25".
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay{h, m, s, t.Nanosecond()}
}

// ParseTimeOfDay parses an ISO-8601 wall-clock time, with or without
// seconds and fractional seconds.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05.999999999", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("cannot parse %q as a time of day", s)
}

func (td TimeOfDay) String() string {
	base := fmt.Sprintf("%02d:%02d:%02d", td.Hour, td.Minute, td.Second)
	if td.Nanosecond == 0 {
		return base
	}
	frac := fmt.Sprintf("%09d", td.Nanosecond)
	for len(frac) > 0 && frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}
	return base + "." + frac
}

// epochTime interprets secs as seconds since the Unix epoch, at UTC.
// Fractional seconds carry into nanoseconds.
func epochTime(secs float64) time.Time {
	sec, frac := math.Modf(secs)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// unixtime is the marshal-direction inverse of epochTime for the
// temporal kinds that have an instant interpretation.
func unixtime(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// epochSeconds converts a wire number to float64 seconds.
func epochSeconds(w any) (float64, bool) {
	switch n := w.(type) {
	case int64:
		return float64(n), true
	case uint64:
		sec, err := safecast.Conv[int64](n)
		if err != nil {
			return 0, false
		}
		return float64(sec), true
	case float64:
		return n, true
	}
	return 0, false
}
