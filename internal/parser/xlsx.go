package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

// XLSXParser reads one worksheet of an Excel workbook. Sheet picks the
// worksheet by name; empty means the first sheet.
type XLSXParser struct {
	Sheet  string
	Header bool
}

func (p *XLSXParser) ParseTable(r io.Reader, filename string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filename, err)
	}
	defer f.Close()

	sheet := p.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &errs.NotFoundError{What: "worksheet", Label: "any", Where: filename}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &errs.NotFoundError{What: "worksheet", Label: sheet, Where: filename}
	}
	if p.Header {
		return table.WithHeader(rows), nil
	}
	return table.New(rows), nil
}
