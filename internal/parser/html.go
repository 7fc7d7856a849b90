package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/coursegest/internal/sheet"
)

// HTMLParser reads each top-level <table> as one sheet. A <caption> becomes
// the sheet's first row, and spanned cells are expanded so later cells keep
// their column.
type HTMLParser struct{}

func (p *HTMLParser) ParseWorkbook(r io.Reader, filename string) (*sheet.Workbook, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, malformed("html", err)
	}

	wb := &sheet.Workbook{}
	for i, tbl := range findTables(doc) {
		name := attr(tbl, "id")
		if name == "" {
			name = fmt.Sprintf("table %d", i+1)
		}
		wb.Sheets = append(wb.Sheets, sheet.New(name, tableRows(tbl)...))
	}
	return wb, nil
}

func findTables(n *html.Node) []*html.Node {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "table":
			return []*html.Node{n}
		case "script", "style":
			return nil
		}
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findTables(c)...)
	}
	return out
}

// tableRows reads the rows of tbl on its column grid. A cell with colspan
// is followed by empty cells; a cell with rowspan repeats its value in the
// same column of the rows it covers.
func tableRows(tbl *html.Node) [][]any {
	var rows [][]any
	var carry []spanned
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				if t := textContent(c); t != "" {
					rows = append(rows, []any{t})
				}
			case "thead", "tbody", "tfoot":
				walk(c)
			case "tr":
				var cells []any
				cells, carry = rowCells(c, carry)
				rows = append(rows, cells)
			}
		}
	}
	walk(tbl)
	return rows
}

// spanned is a rowspan value still owed to the rows below.
type spanned struct {
	value any
	rows  int
}

// rowCells lays out one <tr>. carry holds, per column, the rowspan values
// from rows above; the returned carry is for the next row.
func rowCells(tr *html.Node, carry []spanned) ([]any, []spanned) {
	var cells []any
	next := make([]spanned, len(carry))
	// fill copies carried values into cells until a free column is reached.
	fill := func() {
		for len(cells) < len(carry) && carry[len(cells)].rows > 0 {
			col := len(cells)
			cells = append(cells, carry[col].value)
			next[col] = spanned{value: carry[col].value, rows: carry[col].rows - 1}
		}
	}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		fill()
		var v any
		if t := textContent(c); t != "" {
			v = t
		}
		colspan := spanAttr(c, "colspan")
		rowspan := spanAttr(c, "rowspan")
		for i := range colspan {
			val := v
			if i > 0 {
				val = nil
			}
			if rowspan > 1 {
				col := len(cells)
				for len(next) <= col {
					next = append(next, spanned{})
				}
				next[col] = spanned{value: val, rows: rowspan - 1}
			}
			cells = append(cells, val)
		}
	}
	fill()
	for col := len(cells); col < len(carry); col++ {
		if carry[col].rows > 0 {
			for len(cells) < col {
				cells = append(cells, nil)
			}
			fill()
			col = len(cells) - 1
		}
	}
	return cells, next
}

func spanAttr(n *html.Node, key string) int {
	if v, err := strconv.Atoi(attr(n, key)); err == nil && v > 1 {
		return v
	}
	return 1
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
