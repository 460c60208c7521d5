package timecodec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var ErrInvalidDuration = errors.New("invalid ISO-8601 duration")

// Weeks and days are fixed length here. Years and months are not and are rejected.
var durationPattern = regexp.MustCompile(
	`^([+-])?P(?:(\d+(?:[.,]\d+)?)W)?(?:(\d+(?:[.,]\d+)?)D)?(?:T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`,
)

var durationUnits = []time.Duration{7 * day, day, time.Hour, time.Minute, time.Second}

// FormatDuration renders d as an ISO-8601 duration, e.g. PT2H, P1DT30M, -PT1H.
// A zero duration is rendered as P0D.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "P0D"
	}

	var b strings.Builder
	u := uint64(d)
	if d < 0 {
		b.WriteByte('-')
		u = uint64(-(d + 1)) + 1
	}
	b.WriteByte('P')

	days := u / uint64(day)
	u -= days * uint64(day)
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if u == 0 {
		return b.String()
	}

	b.WriteByte('T')
	hours := u / uint64(time.Hour)
	u -= hours * uint64(time.Hour)
	minutes := u / uint64(time.Minute)
	u -= minutes * uint64(time.Minute)
	seconds := u / uint64(time.Second)
	nanos := u - seconds*uint64(time.Second)

	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 || nanos > 0 {
		b.WriteString(strconv.FormatUint(seconds, 10))
		if nanos > 0 {
			frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
			b.WriteByte('.')
			b.WriteString(frac)
		}
		b.WriteByte('S')
	}
	return b.String()
}

// ParseDuration parses an ISO-8601 duration made of week, day, hour, minute
// and second components.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var total time.Duration
	seen := false
	for i, unit := range durationUnits {
		part := m[i+2]
		if part == "" {
			continue
		}
		seen = true
		v, err := componentValue(part, unit)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, s, err)
		}
		if total > math.MaxInt64-v {
			return 0, fmt.Errorf("%w: %q: out of range", ErrInvalidDuration, s)
		}
		total += v
	}
	if !seen || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

func componentValue(part string, unit time.Duration) (time.Duration, error) {
	part = strings.Replace(part, ",", ".", 1)
	whole, frac, _ := strings.Cut(part, ".")

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	if n > int64(math.MaxInt64/unit) {
		return 0, errors.New("out of range")
	}
	v := time.Duration(n) * unit

	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, err
		}
		v += time.Duration(math.Round(f * float64(unit)))
	}
	return v, nil
}
