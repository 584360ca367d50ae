package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/fundgest/internal/table"
)

// CSVParser reads a CSV export. Without Header the first row stays data, as
// section extraction expects; with Header it becomes the column names.
type CSVParser struct {
	Header bool
}

func (p *CSVParser) ParseTable(r io.Reader, filename string) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filename, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = trimBOM(records[0][0])
	}
	if p.Header {
		return table.WithHeader(records), nil
	}
	return table.New(records), nil
}

func trimBOM(s string) string { return strings.TrimPrefix(s, "\ufeff") }
