// Package parser reads uploaded files into the models the extractors scan:
// spreadsheets into sheet.Workbook and word-processing documents into
// doctree.Document.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/coursegest/internal/doctree"
	"github.com/dgallion1/coursegest/internal/sheet"
)

var (
	// ErrMalformedInput wraps every failure to decode a file.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnsupported is returned for file extensions no reader handles.
	ErrUnsupported = errors.New("unsupported file type")
)

// WorkbookParser converts raw bytes into a workbook.
type WorkbookParser interface {
	ParseWorkbook(r io.Reader, filename string) (*sheet.Workbook, error)
}

// DocumentParser converts raw bytes into a document tree.
type DocumentParser interface {
	ParseDocument(r io.Reader, filename string) (*doctree.Document, error)
}

// WorkbookExtensions lists spreadsheet-like extensions.
var WorkbookExtensions = map[string]bool{
	".xlsx":     true,
	".xlsm":     true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// DocumentExtensions lists document extensions.
var DocumentExtensions = map[string]bool{
	".docx": true,
}

// ForWorkbook returns the workbook parser for a filename.
func ForWorkbook(filename string) (WorkbookParser, error) {
	switch ext(filename) {
	case ".xlsx", ".xlsm":
		return &XLSXParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a spreadsheet", ErrUnsupported, filepath.Ext(filename))
	}
}

// ForDocument returns the document parser for a filename.
func ForDocument(filename string) (DocumentParser, error) {
	switch ext(filename) {
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a document", ErrUnsupported, filepath.Ext(filename))
	}
}

// OpenWorkbook picks the parser for filename and runs it.
func OpenWorkbook(r io.Reader, filename string) (*sheet.Workbook, error) {
	p, err := ForWorkbook(filename)
	if err != nil {
		return nil, err
	}
	return p.ParseWorkbook(r, filename)
}

// OpenDocument picks the parser for filename and runs it.
func OpenDocument(r io.Reader, filename string) (*doctree.Document, error) {
	p, err := ForDocument(filename)
	if err != nil {
		return nil, err
	}
	return p.ParseDocument(r, filename)
}

// IsSupportedExtension checks if any reader handles the file.
func IsSupportedExtension(filename string) bool {
	e := ext(filename)
	return WorkbookExtensions[e] || DocumentExtensions[e]
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func malformed(kind string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedInput, kind, err)
}
