package labs

import (
	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/sheet"
)

// Block is a detected table: its header row and the data rows
// [FirstRow, EndRow). EndRow is the terminator row, or MaxRow+1 when the
// table runs to the bottom of the sheet.
type Block struct {
	HeaderRow int
	Header    HeaderMap
	FirstRow  int
	EndRow    int
}

// Rows is the number of data rows in the block.
func (b Block) Rows() int {
	return b.EndRow - b.FirstRow
}

// Segment scans s top to bottom and returns every table block. Scanning
// resumes on the row after each block's terminator.
func Segment(s *sheet.Sheet, opts Options) []Block {
	opts = opts.withDefaults()
	maxRow, maxCol := s.MaxRow(), s.MaxCol()

	var blocks []Block
	for r := 1; r <= maxRow; {
		h, hits := Fingerprint(rowTexts(s, r, maxCol), opts.Labels)
		if hits < opts.MinHeaderHits {
			r++
			continue
		}
		end := r + 1
		for end <= maxRow && !isTerminator(s, end, h) {
			end++
		}
		blocks = append(blocks, Block{HeaderRow: r, Header: h, FirstRow: r + 1, EndRow: end})
		r = end + 1
	}
	return blocks
}

// isTerminator reports whether the session label, date and day of row are
// all empty.
func isTerminator(s *sheet.Sheet, row int, h HeaderMap) bool {
	return sessionLabel(s, row, h) == "" &&
		text(s, row, h, FieldDate) == "" &&
		text(s, row, h, FieldDay) == ""
}

func rowTexts(s *sheet.Sheet, row, maxCol int) []string {
	out := make([]string, maxCol)
	for c := 1; c <= maxCol; c++ {
		out[c-1] = normalize.Text(s.Value(row, c))
	}
	return out
}

// cell returns the raw value of field f in row, or nil when the header has
// no such column.
func cell(s *sheet.Sheet, row int, h HeaderMap, f Field) any {
	col := h.Col(f)
	if col == 0 {
		return nil
	}
	return s.Value(row, col)
}

func text(s *sheet.Sheet, row int, h HeaderMap, f Field) string {
	return normalize.Text(cell(s, row, h, f))
}

// sessionLabel prefers the session number and falls back to the session name.
func sessionLabel(s *sheet.Sheet, row int, h HeaderMap) string {
	if no := text(s, row, h, FieldSessionNo); no != "" {
		return no
	}
	return text(s, row, h, FieldSessionName)
}
