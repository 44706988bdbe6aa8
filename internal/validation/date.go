package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried in order when coercing a string date. Fractional
// seconds are optional in the layouts that declare them.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

// legacyDateRE matches the DD/MM/YYYY and DD-MM-YYYY shapes found in legacy data.
var legacyDateRE = regexp.MustCompile(`^(\d{2})[/-](\d{2})[/-](\d{4})$`)

// CoerceDate converts a raw date input into a time.Time.
//
// Accepted inputs:
//   - time.Time or a non-nil *time.Time, returned as-is
//   - an ISO-8601 string (date, date-time, with or without zone)
//   - a legacy DD/MM/YYYY or DD-MM-YYYY string, read as midnight in loc
//
// The boolean is false for any other value, including strings that name an
// impossible calendar date (e.g. day 32). A nil loc means UTC.
func CoerceDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		return parseDateString(strings.TrimSpace(d), loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	m := legacyDateRE.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	// time.Date normalizes overflow (32 Dec → 1 Jan); reject instead.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
