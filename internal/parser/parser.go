// Package parser reads uploaded documents: minutes become plain text by way
// of a DocTree, spreadsheets become raw tables.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/fundgest/internal/doctree"
	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// TableParser converts raw spreadsheet bytes into a headerless table.
type TableParser interface {
	ParseTable(r io.Reader, filename string) (*table.Table, error)
}

// Options tune parser construction.
type Options struct {
	// PDFFallbackPdftotext retries unreadable PDFs with the pdftotext binary.
	PDFFallbackPdftotext bool
}

// TextExtensions lists the document formats read as text.
var TextExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// TableExtensions lists the spreadsheet formats read as tables.
var TableExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

func ext(filename string) string { return strings.ToLower(filepath.Ext(filename)) }

func unsupported(filename string) error {
	return &errs.ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported file extension %q", ext(filename))}
}

// ForFile returns the text parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	switch ext(filename) {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, unsupported(filename)
	}
}

// ForTable returns the table parser for a filename.
func ForTable(filename string) (TableParser, error) {
	switch ext(filename) {
	case ".csv":
		return &CSVParser{}, nil
	case ".xlsx":
		return &XLSXParser{}, nil
	default:
		return nil, unsupported(filename)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	e := ext(filename)
	return TextExtensions[e] || TableExtensions[e]
}

// IsTable reports whether filename is a spreadsheet format.
func IsTable(filename string) bool { return TableExtensions[ext(filename)] }

// Text parses a document and flattens it to plain text.
func Text(r io.Reader, filename string, opts Options) (string, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return "", err
	}
	tree, err := p.Parse(r, filename)
	if err != nil {
		return "", err
	}
	return doctree.Flatten(tree), nil
}

// Table parses a spreadsheet into a headerless table.
func Table(r io.Reader, filename string) (*table.Table, error) {
	p, err := ForTable(filename)
	if err != nil {
		return nil, err
	}
	return p.ParseTable(r, filename)
}
