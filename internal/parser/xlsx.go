package parser

import (
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/coursegest/internal/sheet"
)

// XLSXParser reads every sheet of an Excel workbook. Numeric cells carrying
// a date format become time.Time; time-of-day formats keep their displayed
// text; everything else keeps its raw stored value.
type XLSXParser struct{}

func (p *XLSXParser) ParseWorkbook(r io.Reader, filename string) (*sheet.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed("xlsx", err)
	}
	defer f.Close()

	formats := &numFormats{f: f, kinds: make(map[int]formatKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		formats.date1904 = *props.Date1904
	}

	wb := &sheet.Workbook{}
	for _, name := range f.GetSheetList() {
		sh, err := readSheet(f, name, formats)
		if err != nil {
			return nil, malformed("xlsx sheet "+name, err)
		}
		wb.Sheets = append(wb.Sheets, sh)
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string, formats *numFormats) (*sheet.Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(raw))
	for i, r := range raw {
		vals := make([]any, len(r))
		for j, v := range r {
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if vals[j], err = formats.value(name, axis, v); err != nil {
				return nil, err
			}
		}
		rows[i] = vals
	}
	return sheet.New(name, rows...), nil
}

type formatKind int

const (
	formatPlain formatKind = iota
	formatDate
	formatTime
)

// numFormats classifies cell styles by number format, caching per style.
type numFormats struct {
	f        *excelize.File
	kinds    map[int]formatKind
	date1904 bool
}

func (n *numFormats) value(sheetName, axis, raw string) (any, error) {
	style, err := n.f.GetCellStyle(sheetName, axis)
	if err != nil {
		return nil, err
	}
	switch n.kind(style) {
	case formatDate:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw, nil
		}
		t, err := excelize.ExcelDateToTime(serial, n.date1904)
		if err != nil {
			return raw, nil
		}
		return t, nil
	case formatTime:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return raw, nil
		}
		return n.f.GetCellValue(sheetName, axis)
	}
	return raw, nil
}

func (n *numFormats) kind(style int) formatKind {
	if k, ok := n.kinds[style]; ok {
		return k
	}
	k := formatPlain
	if s, err := n.f.GetStyle(style); err == nil && s != nil {
		if s.CustomNumFmt != nil {
			k = classifyFormatCode(*s.CustomNumFmt)
		} else {
			k = classifyBuiltin(s.NumFmt)
		}
	}
	n.kinds[style] = k
	return k
}

func classifyBuiltin(id int) formatKind {
	switch {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 36, id >= 50 && id <= 58:
		return formatDate
	case id >= 18 && id <= 21, id >= 45 && id <= 47:
		return formatTime
	}
	return formatPlain
}

// classifyFormatCode inspects a custom format code with its quoted literals
// and bracketed sections removed.
func classifyFormatCode(code string) formatKind {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	c := strings.ToLower(b.String())
	switch {
	case strings.ContainsAny(c, "yd"):
		return formatDate
	case strings.ContainsAny(c, "hs"):
		return formatTime
	}
	return formatPlain
}
