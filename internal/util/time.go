package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// JST is the fixed reference zone every canonical timestamp is expressed in.
var JST = time.FixedZone("JST", 9*60*60)

// CanonicalLayout renders seconds precision with a colon separated offset.
// In JST it always ends in "+09:00", never "Z".
const CanonicalLayout = "2006-01-02T15:04:05-07:00"

var (
	zonedPattern    = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)
	wallPattern     = regexp.MustCompile(`^(\d{4})[-/](\d{2})[-/](\d{2})[ T](\d{2}):(\d{2})$`)
	dateOnlyPattern = regexp.MustCompile(`^(\d{4})[-/](\d{2})[-/](\d{2})$`)

	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05Z0700",
		"2006-01-02 15:04Z07:00",
		"2006-01-02 15:04Z0700",
	}
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Format renders t as a canonical timestamp.
func Format(t time.Time) string {
	return t.In(JST).Format(CanonicalLayout)
}

// Parse converts a date-like value into an absolute instant.
//
// Strings ending in Z or a numeric offset are absolute. "YYYY-MM-DD HH:mm"
// (also with "/" or a "T" separator) is wall-clock time in JST, and a bare
// "YYYY-MM-DD" is JST midnight. Anything else goes through a best-effort
// parse where zone-less values are read as JST.
func Parse(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *v, nil
	case string:
		return parseString(strings.TrimSpace(v))
	default:
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", value)
	}
}

func parseString(s string) (time.Time, error) {
	if zonedPattern.MatchString(s) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	if m := wallPattern.FindStringSubmatch(s); m != nil {
		return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), atoi(m[4]), atoi(m[5]), 0, 0, JST), nil
	}
	if m := dateOnlyPattern.FindStringSubmatch(s); m != nil {
		return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), 0, 0, 0, 0, JST), nil
	}
	t, err := dateparse.ParseIn(s, JST)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse date %q: %w", s, err)
	}
	return t, nil
}

// ToCanonical normalizes value into a canonical JST timestamp. Values that
// cannot be interpreted fall back to the current instant; callers that need
// to detect bad input should use Parse first.
func ToCanonical(value any) string {
	t, err := Parse(value)
	if err != nil {
		t = nowFunc()
	}
	return Format(t)
}

// ParseAbsolute reads a canonical (or any RFC 3339) timestamp back into an instant.
func ParseAbsolute(canonical string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(canonical))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid canonical timestamp %q: %w", canonical, err)
	}
	return t, nil
}

// Add shifts a canonical timestamp by d and renders it canonically again.
func Add(canonical string, d time.Duration) (string, error) {
	t, err := ParseAbsolute(canonical)
	if err != nil {
		return "", err
	}
	return Format(t.Add(d)), nil
}

// AddMinutes is Add in whole minutes.
func AddMinutes(canonical string, minutes int) (string, error) {
	return Add(canonical, time.Duration(minutes)*time.Minute)
}

// DayBounds returns JST midnight of the calendar day containing t and the
// following midnight, both canonical.
func DayBounds(t time.Time) (start, end string) {
	local := t.In(JST)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, JST)
	return Format(midnight), Format(midnight.AddDate(0, 0, 1))
}

// atoi is only fed digit groups captured by the patterns above.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
