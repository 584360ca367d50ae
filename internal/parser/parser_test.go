package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/fundgest/internal/errs"
)

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "a.MD", "a.markdown", "a.html", "a.htm", "a.pdf", "a.docx"} {
		p, err := ForFile(name, Options{})
		require.NoError(t, err, name)
		assert.NotNil(t, p, name)
		assert.False(t, IsTable(name), name)
	}
	for _, name := range []string{"a.csv", "a.xlsx"} {
		p, err := ForTable(name)
		require.NoError(t, err, name)
		assert.NotNil(t, p, name)
		assert.True(t, IsTable(name), name)
	}

	_, err := ForFile("a.csv", Options{})
	assert.True(t, errs.IsValidation(err))
	_, err = ForTable("a.pdf")
	assert.True(t, errs.IsValidation(err))
	assert.False(t, IsSupportedExtension("a.exe"))
	assert.True(t, IsSupportedExtension("a.XLSX"))

	p, _ := ForFile("a.pdf", Options{PDFFallbackPdftotext: true})
	assert.True(t, p.(*PDFParser).FallbackPdftotext)
}

func TestTextFlattens(t *testing.T) {
	got, err := Text(strings.NewReader("ASUC Finance Committee\n\n2 Contingency\n1 Club A\n"), "m.txt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "ASUC Finance Committee\n2 Contingency\n1 Club A\n", got)
}

func TestHTMLParser_OrderedLists(t *testing.T) {
	input := `<html><head><title>Minutes</title></head><body>
<p>March 3, 2025</p>
<ol start="2"><li>Contingency Funding<ol><li>Club Alpha<ol><li>Motion to approve $1,200</li></ol></li></ol></li><li>Adjournment</li></ol>
<script>var x = 1;</script>
</body></html>`

	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "minutes.html")
	require.NoError(t, err)
	assert.Equal(t, "Minutes", tree.Title)

	got, err := Text(strings.NewReader(input), "minutes.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, "March 3, 2025\n2. Contingency Funding\n1. Club Alpha\n1. Motion to approve $1,200\n3. Adjournment\n", got)
}

func TestHTMLParser_Headings(t *testing.T) {
	input := `<body><h1>Agenda</h1><p>Intro</p><h2>Contingency</h2><p>Club <b>A</b></p><h2>Sponsorship</h2></body>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "a.htm")
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	h1 := tree.Children[0]
	assert.Equal(t, "Agenda", h1.Title)
	assert.Equal(t, "Intro", h1.Text)
	require.Len(t, h1.Children, 2)
	assert.Equal(t, "Club A", h1.Children[0].Text)
	assert.Equal(t, "Sponsorship", h1.Children[1].Title)
}

func TestCSVParser(t *testing.T) {
	src := "\ufeffOrg ID,Organization Name\n101,\"Club, Inc\"\n102\n"

	raw, err := Table(strings.NewReader(src), "oasis.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, raw.Columns)
	require.Equal(t, 3, raw.Len())
	assert.Equal(t, "Org ID", raw.Cell(0, 0).Text)
	assert.Equal(t, "Club, Inc", raw.Cell(1, 1).Text)
	assert.False(t, raw.Cell(2, 1).Valid)

	hdr, err := (&CSVParser{Header: true}).ParseTable(strings.NewReader(src), "oasis.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Org ID", "Organization Name"}, hdr.Columns)
	assert.Equal(t, 2, hdr.Len())
}

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Export"},
		{"Org ID", "Organization Name", "Org Type"},
		{101, "Blue Club", "Registered Student Organizations"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXParser(t *testing.T) {
	data := xlsxFixture(t)

	tbl, err := Table(bytes.NewReader(data), "oasis.xlsx")
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"0", "1", "2"}, tbl.Columns)
	assert.Equal(t, "Export", tbl.Cell(0, 0).Text)
	assert.False(t, tbl.Cell(0, 1).Valid)
	assert.Equal(t, "101", tbl.Cell(2, 0).Text)

	hdr, err := (&XLSXParser{Sheet: "Sheet1", Header: true}).ParseTable(bytes.NewReader(data), "oasis.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Export", "", ""}, hdr.Columns)
}

func TestXLSXParser_MissingSheet(t *testing.T) {
	_, err := (&XLSXParser{Sheet: "Budget"}).ParseTable(bytes.NewReader(xlsxFixture(t)), "absa.xlsx")
	assert.True(t, errs.IsNotFound(err))
}
