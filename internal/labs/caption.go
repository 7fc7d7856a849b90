package labs

import (
	"regexp"
	"strings"

	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/sheet"
)

// Course identifies the entity a table block is filed under.
type Course struct {
	Code string
	Name string
}

var (
	nameThenCode = regexp.MustCompile(`^(.+?)\s*[-–]\s*(\d{4,6})$`)
	codeThenName = regexp.MustCompile(`^(\d{4,6})\s*[-–]\s*(.+)$`)
)

// ParseCaption recognizes "name - code" and "code - name" lines. The dash
// may be a hyphen or an en dash.
func ParseCaption(line string) (Course, bool) {
	t := normalize.Text(line)
	if t == "" {
		return Course{}, false
	}
	if m := nameThenCode.FindStringSubmatch(t); m != nil {
		if c := (Course{Code: m[2], Name: normalize.Text(m[1])}); c.Name != "" {
			return c, true
		}
	}
	if m := codeThenName.FindStringSubmatch(t); m != nil {
		if c := (Course{Code: m[1], Name: normalize.Text(m[2])}); c.Name != "" {
			return c, true
		}
	}
	return Course{}, false
}

// FindCaption looks at up to lookback rows above headerRow, nearest first,
// for a caption line. Captions may be split over several cells of a row,
// so each row's non-empty cells are joined with spaces before matching.
func FindCaption(s *sheet.Sheet, headerRow, lookback int) (Course, bool) {
	maxCol := s.MaxCol()
	for r := headerRow - 1; r >= 1 && r >= headerRow-lookback; r-- {
		if c, ok := ParseCaption(rowLine(s, r, maxCol)); ok {
			return c, true
		}
	}
	return Course{}, false
}

func rowLine(s *sheet.Sheet, row, maxCol int) string {
	var parts []string
	for c := 1; c <= maxCol; c++ {
		if v := normalize.Text(s.Value(row, c)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
