// Package doctree is the reader-neutral model of a word-processing document.
package doctree

import "strings"

// Document is a parsed word-processing document: its body blocks in order.
type Document struct {
	Title  string
	Blocks []Block
}

// Block is either a paragraph or a table; exactly one field is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// Paragraph is a sequence of formatted runs.
type Paragraph struct {
	Runs []Run
}

// Run is a span of text sharing formatting.
type Run struct {
	Text      string
	Underline bool
}

// Table is a grid of cells, first row first.
type Table struct {
	Rows []Row
}

// Row is one table row.
type Row struct {
	Cells []Cell
}

// Cell holds the paragraphs inside one table cell.
type Cell struct {
	Paragraphs []Paragraph
}

// Text is the concatenation of the paragraph's run texts.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Underlined reports whether any run of the paragraph is underlined.
func (p Paragraph) Underlined() bool {
	for _, r := range p.Runs {
		if r.Underline {
			return true
		}
	}
	return false
}

// Text joins the cell's paragraphs with newlines.
func (c Cell) Text() string {
	parts := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// P builds a paragraph block from plain runs.
func P(runs ...Run) Block {
	return Block{Paragraph: &Paragraph{Runs: runs}}
}

// T builds a table block.
func T(rows ...Row) Block {
	return Block{Table: &Table{Rows: rows}}
}

// TextCell builds a cell holding one plain paragraph.
func TextCell(s string) Cell {
	return Cell{Paragraphs: []Paragraph{{Runs: []Run{{Text: s}}}}}
}

// TextRow builds a row of plain text cells.
func TextRow(cells ...string) Row {
	r := Row{Cells: make([]Cell, len(cells))}
	for i, c := range cells {
		r.Cells[i] = TextCell(c)
	}
	return r
}
