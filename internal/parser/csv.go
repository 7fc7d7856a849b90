package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/dgallion1/coursegest/internal/sheet"
)

// CSVParser reads a CSV file as a single sheet named after the file. Blank
// lines are kept as empty rows, since they separate tables.
type CSVParser struct{}

func (p *CSVParser) ParseWorkbook(r io.Reader, filename string) (*sheet.Workbook, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records [][]string
	next := 1 // line the next record starts on when no blank lines intervene
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("csv", err)
		}
		line, _ := reader.FieldPos(0)
		for ; next < line; next++ {
			records = append(records, nil)
		}
		last := len(rec) - 1
		end, _ := reader.FieldPos(last)
		next = end + strings.Count(rec[last], "\n") + 1
		records = append(records, rec)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return &sheet.Workbook{Sheets: []*sheet.Sheet{sheet.Strings(stem(filename), records)}}, nil
}
