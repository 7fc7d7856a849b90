// Package yearbook walks a yearbook document and files its required-course
// tables under the semester heading that precedes them.
package yearbook

import (
	"regexp"
	"strconv"

	"github.com/dgallion1/coursegest/internal/normalize"
)

var semesterHeading = regexp.MustCompile(`סמסטר\s*([1-8])`)

// Semesters tracks the active semester while paragraphs stream by. It starts
// with no active semester; tables seen in that state are ignored.
type Semesters struct {
	active int
	seen   map[int]bool
	order  []int
}

func NewSemesters() *Semesters {
	return &Semesters{seen: make(map[int]bool)}
}

// Observe feeds one paragraph text. When it names a semester, that semester
// becomes active; first reports whether it had never been seen before.
func (s *Semesters) Observe(text string) (n int, first, ok bool) {
	m := semesterHeading.FindStringSubmatch(normalize.Text(text))
	if m == nil {
		return 0, false, false
	}
	n, _ = strconv.Atoi(m[1])
	s.active = n
	if s.seen[n] {
		return n, false, true
	}
	s.seen[n] = true
	s.order = append(s.order, n)
	return n, true, true
}

// Active returns the current semester.
func (s *Semesters) Active() (int, bool) {
	return s.active, s.active != 0
}

// Seen lists semesters in first-seen order.
func (s *Semesters) Seen() []int {
	return append([]int(nil), s.order...)
}
