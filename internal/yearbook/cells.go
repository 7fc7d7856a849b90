package yearbook

import (
	"regexp"
	"strconv"
	"strings"
)

var numericCell = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Number parses a normalized numeric cell. It returns nil for empty or
// non-numeric text, an int or float64 for numbers, and for "-" either 0
// (dashAsZero) or nil.
func Number(text string, dashAsZero bool) any {
	switch {
	case text == "":
		return nil
	case text == "-":
		if dashAsZero {
			return 0
		}
		return nil
	case !numericCell.MatchString(text):
		return nil
	case strings.Contains(text, "."):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		return f
	default:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil
		}
		return n
	}
}

// Hours keeps weekly hour counts in 0..10 and nils out anything else.
func Hours(v any) any {
	switch x := v.(type) {
	case int:
		if x >= 0 && x <= 10 {
			return x
		}
	case float64:
		if x >= 0 && x <= 10 {
			return x
		}
	}
	return nil
}

var courseCode = regexp.MustCompile(`^\d{5,6}$`)

// IsCourseCode reports whether text is a 5 or 6 digit course code.
func IsCourseCode(text string) bool {
	return courseCode.MatchString(text)
}
