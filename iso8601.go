package typelib

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISO-8601 duration support. Go's time package has no representation
// for the P…T… grammar, so the formatter and parser live here.
//
// Formatting emits days, hours, minutes and seconds (time.Duration
// carries no calendar components), omits zero-valued components, and
// renders the all-zero duration as "PT0S". Fractional seconds are
// emitted without trailing zeros. Negative durations get a leading
// minus sign.

func formatISODuration(d time.Duration) string {
	var ret strings.Builder
	// Magnitude math runs in uint64: -d overflows int64 for the
	// minimum duration.
	ns := uint64(d)
	if d < 0 {
		ret.WriteByte('-')
		ns = -ns
	}
	ret.WriteByte('P')

	days := ns / uint64(24*time.Hour)
	ns -= days * uint64(24*time.Hour)
	hours := ns / uint64(time.Hour)
	ns -= hours * uint64(time.Hour)
	minutes := ns / uint64(time.Minute)
	ns -= minutes * uint64(time.Minute)
	secs := ns / uint64(time.Second)
	nanos := ns - secs*uint64(time.Second)

	if days > 0 {
		fmt.Fprintf(&ret, "%dD", days)
	}
	if hours == 0 && minutes == 0 && secs == 0 && nanos == 0 {
		if days > 0 {
			return ret.String()
		}
		return "PT0S"
	}
	ret.WriteByte('T')
	if hours > 0 {
		fmt.Fprintf(&ret, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&ret, "%dM", minutes)
	}
	if secs > 0 || nanos > 0 {
		if nanos > 0 {
			frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
			fmt.Fprintf(&ret, "%d.%sS", secs, frac)
		} else {
			fmt.Fprintf(&ret, "%dS", secs)
		}
	}
	return ret.String()
}

// isoDurationUnits maps grammar designators to seconds. Calendar
// components have no exact length as a duration; years, months and
// weeks use the fixed approximations 365, 30 and 7 days.
var isoDurationUnits = map[byte]float64{
	'Y': 365 * 24 * 60 * 60,
	'M': 30 * 24 * 60 * 60,
	'W': 7 * 24 * 60 * 60,
	'D': 24 * 60 * 60,
	'H': 60 * 60,
	'S': 1,
}

func parseISODuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if len(s) == 0 || (s[0] != 'P' && s[0] != 'p') {
		return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration", orig)
	}
	s = s[1:]

	var (
		secs    float64
		inTime  bool
		sawUnit bool
	)
	for len(s) > 0 {
		if s[0] == 'T' || s[0] == 't' {
			inTime = true
			s = s[1:]
			continue
		}
		n := 0
		for n < len(s) && (s[n] == '.' || s[n] == ',' || (s[n] >= '0' && s[n] <= '9')) {
			n++
		}
		if n == 0 || n == len(s) {
			return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration", orig)
		}
		num, err := strconv.ParseFloat(strings.ReplaceAll(s[:n], ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration: %w", orig, err)
		}
		unit := s[n] &^ 0x20 // uppercase
		s = s[n+1:]

		scale, ok := isoDurationUnits[unit]
		if !ok {
			return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration: bad designator %q", orig, string(unit))
		}
		// M means months in the date part, minutes in the time part.
		if unit == 'M' && inTime {
			scale = 60
		}
		if !inTime && (unit == 'H' || unit == 'S') {
			return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration: %q before T", orig, string(unit))
		}
		if inTime && (unit == 'Y' || unit == 'W' || unit == 'D') {
			return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration: %q after T", orig, string(unit))
		}
		secs += num * scale
		sawUnit = true
	}
	// A bare "PT" is the minimal rendering of a zero duration.
	if !sawUnit && !inTime {
		return 0, fmt.Errorf("cannot parse %q as an ISO-8601 duration", orig)
	}
	ns := secs * float64(time.Second)
	if math.Abs(ns) > float64(math.MaxInt64) {
		return 0, fmt.Errorf("duration %q overflows", orig)
	}
	d := time.Duration(ns)
	if neg {
		d = -d
	}
	return d, nil
}
