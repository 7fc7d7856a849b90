package parser

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/sheet"
)

// MarkdownParser reads a Markdown file with pipe tables as one sheet. Each
// heading or paragraph becomes a single-cell row, so a caption written above
// a table stays above its header row. An empty row follows every table.
type MarkdownParser struct{}

func (p *MarkdownParser) ParseWorkbook(r io.Reader, filename string) (*sheet.Workbook, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed("markdown", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var rows [][]any
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *extast.Table:
			for r := node.FirstChild(); r != nil; r = r.NextSibling() {
				rows = append(rows, markdownRow(r, src))
			}
			// End the table so following text is not read as its rows.
			rows = append(rows, []any{})
		case *ast.Heading, *ast.Paragraph:
			if t := inlineText(n, src); t != "" {
				rows = append(rows, []any{t})
			}
		}
	}
	return &sheet.Workbook{Sheets: []*sheet.Sheet{sheet.New(stem(filename), rows...)}}, nil
}

// markdownRow reads a TableHeader or TableRow; both hold TableCells.
func markdownRow(row ast.Node, src []byte) []any {
	var cells []any
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		var v any
		if t := inlineText(c, src); t != "" {
			v = t
		}
		cells = append(cells, v)
	}
	return cells
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var buf []byte
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(src)...)
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf = append(buf, ' ')
			}
		case *ast.String:
			buf = append(buf, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return normalize.Text(string(buf))
}
