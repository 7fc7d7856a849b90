// Package normalize reduces raw cell and paragraph values to the canonical
// text and date forms used by the extractors.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCenturyBase is added to two-digit years.
const DefaultCenturyBase = 2000

// Text converts a raw value to trimmed text with internal whitespace runs
// (including non-breaking spaces) collapsed to a single space.
func Text(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			s = x.Format(time.DateOnly)
		} else {
			s = x.Format(time.DateTime)
		}
	default:
		if str, ok := v.(interface{ String() string }); ok {
			s = str.String()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

var dottedDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})$`)

// ISODate returns v as YYYY-MM-DD when it is a native date or a
// dd.mm.yy(yy) string naming a real calendar day. Years below 100 are
// offset by centuryBase. Anything else comes back as Text(v).
func ISODate(v any, centuryBase int) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	s := Text(v)
	if s == "" {
		return ""
	}
	m := dottedDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += centuryBase
	}
	t, ok := calendarDate(year, month, day)
	if !ok {
		return s
	}
	return t.Format(time.DateOnly)
}

// calendarDate rejects dates that time.Date would silently roll over.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
