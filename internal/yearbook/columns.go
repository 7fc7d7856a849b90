package yearbook

import (
	"strings"

	"github.com/dgallion1/coursegest/internal/normalize"
)

const (
	codeCol = 0
	nameCol = 1
)

// Columns are 0-based header positions; -1 marks a missing column.
type Columns struct {
	Code     int
	Name     int
	Lecture  int
	Practice int
	Lab      int
	Credits  int
	Relation int
}

type columnLabels struct {
	full   []string
	abbrev string
}

var (
	lectureLabels  = columnLabels{full: []string{"הרצאה"}, abbrev: "ה"}
	practiceLabels = columnLabels{full: []string{"תרגול"}, abbrev: "ת"}
	labLabels      = columnLabels{full: []string{"מעבדה"}, abbrev: "מ"}
	creditLabels   = columnLabels{full: []string{`נ"ז`, "נ״ז", "נקודות"}, abbrev: "נ"}
)

// IsCourseHeader reports whether a table's first row heads a course table.
func IsCourseHeader(headers []string) bool {
	return strings.Contains(strings.Join(headers, " "), "שם הקורס")
}

// LocateColumns maps header texts to columns. Code and name are fixed at
// columns 0 and 1. Hour and credit columns are looked up in that order, each
// skipping columns already claimed: full labels match anywhere in the
// header, one-letter abbreviations only as the whole header.
func LocateColumns(headers []string) Columns {
	claimed := map[int]bool{codeCol: true, nameCol: true}
	find := func(l columnLabels) int {
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			for _, lbl := range l.full {
				if strings.Contains(h, lbl) {
					claimed[i] = true
					return i
				}
			}
		}
		for i, h := range headers {
			if !claimed[i] && stripQuotes(h) == l.abbrev {
				claimed[i] = true
				return i
			}
		}
		return -1
	}
	cols := Columns{Code: codeCol, Name: nameCol}
	cols.Lecture = find(lectureLabels)
	cols.Practice = find(practiceLabels)
	cols.Lab = find(labLabels)
	cols.Credits = find(creditLabels)
	cols.Relation = -1
	for i, h := range headers {
		if strings.Contains(h, "קדם") || strings.Contains(h, "צמוד") {
			cols.Relation = i
			break
		}
	}
	return cols
}

var quoteStripper = strings.NewReplacer(`"`, "", "'", "", "״", "", "׳", "")

func stripQuotes(s string) string {
	return normalize.Text(quoteStripper.Replace(s))
}
