// Package labs extracts lab-session schedules from spreadsheets whose
// tables float anywhere on a sheet, each captioned by a "name - code" line
// somewhere above its header row.
package labs

import "strings"

// Field is a canonical column the header fingerprinter looks for.
type Field string

const (
	FieldStaff       Field = "staff"
	FieldGroup       Field = "group"
	FieldTime        Field = "time"
	FieldDay         Field = "day"
	FieldDate        Field = "date"
	FieldSessionNo   Field = "sessionNo"
	FieldSessionName Field = "sessionName"
)

// FieldLabels lists the label substrings accepted for one field.
type FieldLabels struct {
	Field  Field
	Labels []string
}

// DefaultHeaderLabels is the label table in claiming priority order.
var DefaultHeaderLabels = []FieldLabels{
	{FieldStaff, []string{"שם המרצה", "מרצה"}},
	{FieldGroup, []string{"קבוצת מעבדה", "קבוצה"}},
	{FieldTime, []string{"שעה"}},
	{FieldDay, []string{"יום"}},
	{FieldDate, []string{"תאריך"}},
	{FieldSessionNo, []string{"מס' מע'", "מספר מעבדה", "מס׳ מע", "מס' מעבדה"}},
	{FieldSessionName, []string{"שם המקצוע", "שם הקורס"}},
}

// HeaderMap maps a field to its 1-based column.
type HeaderMap map[Field]int

// Col returns the column for f, or 0 when f was not found.
func (h HeaderMap) Col(f Field) int {
	return h[f]
}

// Fingerprint scores a row of normalized cell texts against table. Fields
// are tried in table order; each claims the leftmost unclaimed cell that
// contains one of its labels. The hit count is the number of fields found.
func Fingerprint(cells []string, table []FieldLabels) (HeaderMap, int) {
	h := make(HeaderMap)
	claimed := make(map[int]bool)
	for _, fl := range table {
		for i, txt := range cells {
			col := i + 1
			if txt == "" || claimed[col] {
				continue
			}
			if containsAny(txt, fl.Labels) {
				h[fl.Field] = col
				claimed[col] = true
				break
			}
		}
	}
	return h, len(h)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
