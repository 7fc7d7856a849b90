package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/coursegest/internal/doctree"
)

// DOCXParser reads the body of a .docx file in order, keeping paragraphs,
// tables and per-run underline formatting.
type DOCXParser struct{}

func (p *DOCXParser) ParseDocument(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt and a size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed("docx", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed("docx", err)
	}

	out := &doctree.Document{Title: stem(filename)}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			para := convertParagraph(it)
			out.Blocks = append(out.Blocks, doctree.Block{Paragraph: &para})
		case *docx.Table:
			out.Blocks = append(out.Blocks, doctree.Block{Table: convertTable(it)})
		}
	}
	return out, nil
}

// convertTable lays cells out on the table grid: a cell spanning n grid
// columns appears n times, and a vertically merged continuation repeats
// the cell above it.
func convertTable(t *docx.Table) *doctree.Table {
	tbl := &doctree.Table{Rows: make([]doctree.Row, 0, len(t.TableRows))}
	var above []doctree.Cell
	for _, tr := range t.TableRows {
		if tr == nil {
			continue
		}
		row := doctree.Row{Cells: make([]doctree.Cell, 0, len(tr.TableCells))}
		for _, tc := range tr.TableCells {
			var cell doctree.Cell
			if tc != nil {
				for _, p := range tc.Paragraphs {
					cell.Paragraphs = append(cell.Paragraphs, convertParagraph(p))
				}
			}
			col := len(row.Cells)
			if vMergeContinues(tc) && col < len(above) {
				cell = above[col]
			}
			for range gridSpan(tc) {
				row.Cells = append(row.Cells, cell)
			}
		}
		tbl.Rows = append(tbl.Rows, row)
		above = row.Cells
	}
	return tbl
}

func gridSpan(tc *docx.WTableCell) int {
	if tc == nil || tc.TableCellProperties == nil || tc.TableCellProperties.GridSpan == nil {
		return 1
	}
	return max(tc.TableCellProperties.GridSpan.Val, 1)
}

// vMergeContinues reports a w:vMerge without val="restart".
func vMergeContinues(tc *docx.WTableCell) bool {
	if tc == nil || tc.TableCellProperties == nil || tc.TableCellProperties.VMerge == nil {
		return false
	}
	return tc.TableCellProperties.VMerge.Val != "restart"
}

func convertParagraph(p *docx.Paragraph) doctree.Paragraph {
	var para doctree.Paragraph
	if p == nil {
		return para
	}
	for _, child := range p.Children {
		var run *docx.Run
		switch c := child.(type) {
		case *docx.Run:
			run = c
		case *docx.Hyperlink:
			run = &c.Run
		default:
			continue
		}
		var buf strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
		para.Runs = append(para.Runs, doctree.Run{Text: buf.String(), Underline: runUnderlined(run)})
	}
	return para
}

// runUnderlined treats any w:u value other than "none" as underlined.
func runUnderlined(run *docx.Run) bool {
	if run.RunProperties == nil || run.RunProperties.Underline == nil {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(run.RunProperties.Underline.Val))
	return v != "" && v != "none"
}
