package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/coursegest/internal/yearbook"
)

func docxRun(text, underline string) *docx.Run {
	run := &docx.Run{Children: []interface{}{&docx.Text{Text: text}}}
	if underline != "" {
		run.RunProperties = &docx.RunProperties{Underline: &docx.Underline{Val: underline}}
	}
	return run
}

func TestConvertParagraph_Underline(t *testing.T) {
	p := &docx.Paragraph{Children: []interface{}{
		docxRun("12345 ", ""),
		docxRun("67890", "single"),
		docxRun(" 11111", "none"),
	}}
	para := convertParagraph(p)
	if len(para.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(para.Runs))
	}
	if para.Runs[0].Underline || !para.Runs[1].Underline || para.Runs[2].Underline {
		t.Errorf("unexpected underline flags: %+v", para.Runs)
	}
	if got := para.Text(); got != "12345 67890 11111" {
		t.Errorf("expected joined run text, got %q", got)
	}
	if !para.Underlined() {
		t.Error("expected paragraph to report an underlined run")
	}
}

func TestConvertTable(t *testing.T) {
	cell := func(runs ...*docx.Run) *docx.WTableCell {
		children := make([]interface{}, len(runs))
		for i, r := range runs {
			children[i] = r
		}
		return &docx.WTableCell{Paragraphs: []*docx.Paragraph{{Children: children}}}
	}
	tbl := &docx.Table{TableRows: []*docx.WTableRow{
		{TableCells: []*docx.WTableCell{cell(docxRun("קוד", "")), cell(docxRun("שם הקורס", ""))}},
		{TableCells: []*docx.WTableCell{cell(docxRun("11111", "")), {}}},
	}}
	got := convertTable(tbl)
	if len(got.Rows) != 2 || len(got.Rows[1].Cells) != 2 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	if txt := got.Rows[0].Cells[1].Text(); txt != "שם הקורס" {
		t.Errorf("expected header text, got %q", txt)
	}
	if txt := got.Rows[1].Cells[1].Text(); txt != "" {
		t.Errorf("expected empty cell, got %q", txt)
	}
}

func TestConvertParagraph_HyperlinkRuns(t *testing.T) {
	p := &docx.Paragraph{Children: []interface{}{
		docxRun("סמסטר ", ""),
		&docx.Hyperlink{Run: *docxRun("3", "")},
	}}
	if got := convertParagraph(p).Text(); got != "סמסטר 3" {
		t.Errorf("expected hyperlink text kept, got %q", got)
	}
}

func TestConvertTable_GridSpanAndVMerge(t *testing.T) {
	cell := func(text string, props *docx.WTableCellProperties) *docx.WTableCell {
		return &docx.WTableCell{
			TableCellProperties: props,
			Paragraphs:          []*docx.Paragraph{{Children: []interface{}{docxRun(text, "")}}},
		}
	}
	span2 := &docx.WTableCellProperties{GridSpan: &docx.WGridSpan{Val: 2}}
	restart := &docx.WTableCellProperties{VMerge: &docx.WvMerge{Val: "restart"}}
	cont := &docx.WTableCellProperties{VMerge: &docx.WvMerge{}}

	tbl := &docx.Table{TableRows: []*docx.WTableRow{
		{TableCells: []*docx.WTableCell{cell("קוד", nil), cell("שם הקורס", span2), cell("הרצאה", nil), cell(`נ"ז`, nil)}},
		{TableCells: []*docx.WTableCell{cell("11111", restart), cell("כימיה", nil), cell("Chemistry", nil), cell("3", nil), cell("4", nil)}},
		{TableCells: []*docx.WTableCell{cell("", cont), cell("המשך", nil), cell("", nil), cell("2", nil), cell("5", nil)}},
	}}
	got := convertTable(tbl)

	header := got.Rows[0].Cells
	if len(header) != 5 {
		t.Fatalf("expected header on a 5-column grid, got %d cells", len(header))
	}
	if header[1].Text() != "שם הקורס" || header[2].Text() != "שם הקורס" {
		t.Errorf("expected spanned cell repeated, got %q %q", header[1].Text(), header[2].Text())
	}
	if header[3].Text() != "הרצאה" || header[4].Text() != `נ"ז` {
		t.Errorf("expected later headers aligned with data, got %q %q", header[3].Text(), header[4].Text())
	}
	texts := make([]string, len(header))
	for i, c := range header {
		texts[i] = c.Text()
	}
	cols := yearbook.LocateColumns(texts)
	if cols.Lecture != 3 || cols.Credits != 4 {
		t.Fatalf("expected lecture=3 credits=4, got lecture=%d credits=%d", cols.Lecture, cols.Credits)
	}
	if got.Rows[1].Cells[cols.Lecture].Text() != "3" || got.Rows[1].Cells[cols.Credits].Text() != "4" {
		t.Errorf("expected data cells under their headers")
	}
	if txt := got.Rows[2].Cells[0].Text(); txt != "11111" {
		t.Errorf("expected vMerge continuation to repeat the cell above, got %q", txt)
	}
}

func TestDOCXParser_Malformed(t *testing.T) {
	_, err := OpenDocument(strings.NewReader("plain text"), "yearbook.docx")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}
