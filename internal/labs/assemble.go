package labs

import (
	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/sheet"
)

// SessionRecord is one scheduled lab session.
type SessionRecord struct {
	Date  string   `json:"date" yaml:"date"`
	Day   string   `json:"day" yaml:"day"`
	Group string   `json:"group" yaml:"group"`
	Time  string   `json:"time" yaml:"time"`
	Staff []string `json:"staff" yaml:"staff"`
	// Session is the session number when present, else the session name.
	Session string `json:"session" yaml:"session"`
	// SessionNo is the raw session-number text; nil when the table has no
	// session-number column.
	SessionNo *string `json:"sessionNo,omitempty" yaml:"sessionNo,omitempty"`
}

// Fields renders the record as document fields.
func (r SessionRecord) Fields() map[string]any {
	staff := r.Staff
	if staff == nil {
		staff = []string{}
	}
	m := map[string]any{
		"date":    r.Date,
		"day":     r.Day,
		"group":   r.Group,
		"time":    r.Time,
		"staff":   staff,
		"session": r.Session,
	}
	if r.SessionNo != nil {
		m["sessionNo"] = *r.SessionNo
	}
	return m
}

// AssembleRow builds the record for one data row.
func AssembleRow(s *sheet.Sheet, row int, h HeaderMap, centuryBase int) SessionRecord {
	rec := SessionRecord{
		Date:    normalize.ISODate(cell(s, row, h, FieldDate), centuryBase),
		Day:     text(s, row, h, FieldDay),
		Group:   text(s, row, h, FieldGroup),
		Time:    text(s, row, h, FieldTime),
		Staff:   []string{},
		Session: sessionLabel(s, row, h),
	}
	if h.Col(FieldSessionNo) != 0 {
		no := text(s, row, h, FieldSessionNo)
		rec.SessionNo = &no
	}
	if staff := text(s, row, h, FieldStaff); staff != "" {
		rec.Staff = []string{staff}
	}
	return rec
}

// Assemble builds the records of every data row in b, in row order.
func Assemble(s *sheet.Sheet, b Block, centuryBase int) []SessionRecord {
	recs := make([]SessionRecord, 0, b.Rows())
	for r := b.FirstRow; r < b.EndRow; r++ {
		recs = append(recs, AssembleRow(s, r, b.Header, centuryBase))
	}
	return recs
}
