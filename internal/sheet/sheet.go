// Package sheet holds the in-memory workbook model the spreadsheet
// extractor scans. Readers in internal/parser produce it.
package sheet

// Workbook is an ordered list of sheets.
type Workbook struct {
	Sheets []*Sheet
}

// Sheet is a bounded grid of raw cell values. Rows may be ragged.
// Values are nil, string, float64, int or time.Time.
type Sheet struct {
	Name string
	Rows [][]any
}

// New builds a sheet from rows of values.
func New(name string, rows ...[]any) *Sheet {
	return &Sheet{Name: name, Rows: rows}
}

// MaxRow is the number of rows in the sheet.
func (s *Sheet) MaxRow() int {
	return len(s.Rows)
}

// MaxCol is the width of the widest row.
func (s *Sheet) MaxCol() int {
	n := 0
	for _, r := range s.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Value returns the cell at the 1-based (row, col), or nil when it lies
// outside the grid.
func (s *Sheet) Value(row, col int) any {
	if row < 1 || row > len(s.Rows) {
		return nil
	}
	r := s.Rows[row-1]
	if col < 1 || col > len(r) {
		return nil
	}
	return r[col-1]
}

// Strings converts rows of text into a sheet; empty strings become nil.
func Strings(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: name, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		vals := make([]any, len(r))
		for j, v := range r {
			if v != "" {
				vals[j] = v
			}
		}
		s.Rows[i] = vals
	}
	return s
}
