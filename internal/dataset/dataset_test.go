package dataset

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/fundgest/internal/chunker"
	"github.com/dgallion1/fundgest/internal/config"
	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/extract"
	"github.com/dgallion1/fundgest/internal/table"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func absaSheet() *table.Table {
	return table.New([][]string{
		{"ASUC Budget 2025", "", ""},
		{"ASUC Chartered Programs and Commissions", "", ""},
		{"Organization", "Amount", ""},
		{"Club A", "100", "x"},
		{"Club B", "200", ""},
		{"SUBTOTAL", "300", ""},
		{"Senate", "Budget", ""},
		{"Senator One", "50", ""},
		{"SUBTOTAL Senate", "50", ""},
	})
}

func frSheet() *table.Table {
	return table.New([][]string{
		{"Finance Rule Resolution"},
		{"Meeting of 2025-03-03"},
		{"Appx", "Org Name", "Request Type", "Org Type", "Amount Requested", "Amount Approved", "Funding Source", "Primary Contact", "Email Address", "Notes"},
		{"A", "Club A", "Finance Rule", "RSO", "500", "400", "Contingency", "Ann", "ann@example.edu", "n"},
		{"B", "Club B", "Finance Rule", "RSO", "300", "0", "Contingency", "Bo", "bo@example.edu", ""},
		{"Total", "", "", "", "800", "400"},
	})
}

func oasisSheet() *table.Table {
	return table.New([][]string{
		{"Export generated by OASIS"},
		{"Org ID", "Organization Name", "Org Type", "LEAD Center Advisor"},
		{"101", "Blue Club 💙", "Registered Student Organizations", "LEAD Center Category: Arts"},
		{"102", "Other Club", "Sponsored Student Organizations", "none"},
	})
}

const minutes = `ASUC Finance Committee Minutes
Monday, March 3rd, 2025
1 Call to Order
2 Contingency Funding
1 Club Alpha
1 Motion to approve $1,200
2 Seconded
2 Club Beta
1 Motion to deny
3 Finance Rule Waivers
1 Club Gamma
1 Motion to table until next week
4 Adjournment
`

func TestABSA(t *testing.T) {
	out, err := NewABSA().Process(Shared{}, Input{Name: "absa.csv", Table: absaSheet()})
	require.NoError(t, err)

	assert.Equal(t, "ABSA", out.Name)
	assert.Equal(t, []string{"Organization", "Amount", colOrgCategory, "Budget"}, out.Table.Columns)
	require.Equal(t, 3, out.Table.Len())
	assert.Equal(t, []string{"Club A", "100", "ASUC Chartered Programs and Commissions", ""}, out.Table.Strings()[1])
	assert.Equal(t, []string{"Senator One", "", "Senate", "50"}, out.Table.Strings()[3])
	assert.Len(t, out.Skipped, len(DefaultABSAHeader)+len(DefaultABSANoHeader)-2)
}

func TestABSANoBlocks(t *testing.T) {
	_, err := NewABSA().Process(Shared{}, Input{Table: table.New([][]string{{"nothing", "here"}})})
	assert.True(t, errs.IsNotFound(err))
}

func TestABSANeedsTable(t *testing.T) {
	_, err := NewABSA().Process(Shared{}, Input{Text: "minutes"})
	assert.True(t, errs.IsValidation(err))
}

func TestFR(t *testing.T) {
	out, err := NewFR().Process(Shared{}, Input{Name: "fr.csv", Table: frSheet()})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", out.Date)
	assert.Equal(t, "FR_clean_2025-03-03", out.Name)
	assert.Equal(t, frColumns, out.Table.Columns)
	require.Equal(t, 2, out.Table.Len())
	assert.Equal(t, []string{"A", "Club A", "Finance Rule", "RSO", "500", "400", "Contingency", "Ann", "ann@example.edu"}, out.Table.Strings()[1])
	assert.Empty(t, out.Warnings)
}

func TestFRDateFromText(t *testing.T) {
	out, err := NewFR().Process(Shared{}, Input{Table: frSheet(), Text: "Resolution adopted April 7, 2025"})
	require.NoError(t, err)
	assert.Equal(t, "FR_clean_2025-04-07", out.Name)
}

func TestFRNamesOutputAfterDateToken(t *testing.T) {
	out, err := NewFR().Process(Shared{}, Input{Table: frSheet(), Text: "Resolution of 03/10/2025"})
	require.NoError(t, err)
	assert.Equal(t, "FR_clean_03-10-2025", out.Name)
	assert.Equal(t, "2025-03-10", out.Date)
}

func TestFRUndated(t *testing.T) {
	sheet := table.New([][]string{
		{"Appx", "Org Name"},
		{"A", "Club A"},
	})
	out, err := NewFR().Process(Shared{}, Input{Table: sheet})
	require.NoError(t, err)
	assert.Equal(t, "FR_clean_undated", out.Name)
	assert.Len(t, out.Warnings, 1)
	assert.Equal(t, []string{"Appx", "Org Name"}, out.Table.Columns)
}

func TestFRMissingAnchor(t *testing.T) {
	_, err := NewFR().Process(Shared{}, Input{Table: table.New([][]string{{"Org", "Amount"}})})
	assert.True(t, errs.IsNotFound(err))
}

func TestOASIS(t *testing.T) {
	out, err := NewOASIS().Process(Shared{}, Input{Name: "oasis 2024-2025.csv", Table: oasisSheet()})
	require.NoError(t, err)

	assert.Equal(t, []string{"Org ID", colOrgName, colDesignation, colBlueHeart, colActive, colYear}, out.Table.Columns)
	rows := out.Table.Strings()
	assert.Equal(t, []string{"101", "Blue Club 💙", "Arts", "true", "true", "2024-2025"}, rows[1])
	assert.Equal(t, []string{"102", "Other Club", "", "false", "false", "2024-2025"}, rows[2])
	assert.Empty(t, out.Warnings)
}

func TestOASISYearOverride(t *testing.T) {
	out, err := NewOASIS().Process(Shared{}, Input{Name: "oasis.csv", Table: oasisSheet(), Year: "2023-2024"})
	require.NoError(t, err)
	col, ok := out.Table.Column(colYear)
	require.True(t, ok)
	assert.Equal(t, "2023-2024", col[0].Text)
}

func TestOASISMissingOrgType(t *testing.T) {
	sheet := table.New([][]string{
		{"Org ID", "Organization Name", "Org Category"},
		{"7", "Club", "OASIS Center Category: Service"},
	})
	out, err := NewOASIS().Process(Shared{}, Input{Table: sheet})
	require.NoError(t, err)
	assert.Len(t, out.Warnings, 2) // year and org type
	assert.Equal(t, []string{"7", "Club", "Service", "false", "false", ""}, out.Table.Strings()[1])
}

func TestOASISMissingName(t *testing.T) {
	sheet := table.New([][]string{{"Org ID", "Name"}, {"1", "x"}})
	_, err := NewOASIS().Process(Shared{}, Input{Table: sheet})
	assert.True(t, errs.IsNotFound(err))
}

func TestContingency(t *testing.T) {
	c, err := DefaultContingency()
	require.NoError(t, err)

	out, err := c.Process(Shared{}, Input{Name: "2025-03-03 ficomm minutes.txt", Text: minutes})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03 Agenda", out.Name)
	assert.Equal(t, "03/03/2025", out.Date)
	assert.Equal(t, []string{"Rule Waiver", "Space Reservation"}, out.Skipped)
	assert.Empty(t, out.Warnings)

	assert.Equal(t, extract.Columns, out.Table.Columns)
	assert.Equal(t, [][]string{
		extract.Columns,
		{"Club Alpha", "Contingency", "Approved", "1200", "03/03/2025"},
		{"Club Beta", "Contingency", "Denied or Tabled Indefinitely", "0", "03/03/2025"},
		{"Club Gamma", "Finance Rule", "Tabled", "0", "03/03/2025"},
	}, out.Table.Strings())
	assert.Len(t, out.Records, 3)
}

func TestContingencyWarnings(t *testing.T) {
	c, err := DefaultContingency()
	require.NoError(t, err)

	out, err := c.Process(Shared{}, Input{Name: "notes.txt", Text: "2 Contingency\n1 Club\n3 Adjournment\n"})
	require.NoError(t, err)
	assert.Equal(t, "Agenda", out.Name)
	assert.Equal(t, "00/00/0000", out.Date)
	assert.Len(t, out.Warnings, 2) // file name and date
}

func TestContingencyNoSections(t *testing.T) {
	c, err := DefaultContingency()
	require.NoError(t, err)
	_, err = c.Process(Shared{}, Input{Name: "ficomm.txt", Text: "nothing relevant"})
	assert.True(t, errs.IsNotFound(err))
}

func TestOASISMergesExisting(t *testing.T) {
	existing := table.WithHeader([][]string{
		{"Org ID", colOrgName, colDesignation, colBlueHeart, colActive, colYear, colYearRank, "Notes"},
		{"102", "Other Club", "", "false", "false", "2023-2024", "5", "kept"},
		{"100", "Alpha Club", "Arts", "false", "true", "2025-2026", "0", ""},
	})
	out, err := NewOASIS().Process(Shared{}, Input{Name: "oasis.csv", Table: oasisSheet(), Year: "2024-2025", Existing: existing})
	require.NoError(t, err)

	assert.Equal(t, []string{"Org ID", colOrgName, colDesignation, colBlueHeart, colActive, colYear, "Notes", colYearRank}, out.Table.Columns)
	assert.Equal(t, [][]string{
		{"102", "Other Club", "", "false", "false", "2023-2024", "kept", "0"},
		{"101", "Blue Club 💙", "Arts", "true", "true", "2024-2025", "", "1"},
		{"102", "Other Club", "", "false", "false", "2024-2025", "", "1"},
		{"100", "Alpha Club", "Arts", "false", "true", "2025-2026", "", "2"},
	}, out.Table.Strings()[1:])
}

func TestMergeOASISRejects(t *testing.T) {
	fresh := table.WithHeader([][]string{{colOrgName, colYear}, {"Club", "2024-2025"}})

	_, err := MergeOASIS(table.WithHeader([][]string{{colOrgName}, {"x"}}), fresh)
	assert.True(t, errs.IsNotFound(err))

	_, err = MergeOASIS(table.WithHeader([][]string{{colOrgName, colYear}, {"x", "last year"}}), fresh)
	assert.True(t, errs.IsValidation(err))
}

type fixedSchema struct {
	ABSA
	columns []string
}

func (f *fixedSchema) Name() string     { return "Fixed" }
func (f *fixedSchema) Schema() []string { return f.columns }

func TestRegistryChecksSchema(t *testing.T) {
	r := NewRegistry(quietLogger())
	bad := &fixedSchema{ABSA: *NewABSA(), columns: []string{"Organization", "Budget"}}
	require.NoError(t, r.Register(bad))
	_, err := r.ProcessOne("Fixed", Input{Table: absaSheet()})
	assert.True(t, errs.IsValidation(err))

	good := &fixedSchema{ABSA: *NewABSA(), columns: []string{"Organization", "Amount"}}
	r = NewRegistry(quietLogger())
	require.NoError(t, r.Register(good))
	_, err = r.ProcessOne("Fixed", Input{Table: absaSheet()})
	assert.NoError(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.Register(NewABSA()))
	require.NoError(t, r.Register(NewFR()))

	err := r.Register(&ABSA{})
	assert.True(t, errs.IsValidation(err), "duplicate name")

	p, ok := r.Lookup("absa")
	require.True(t, ok)
	assert.Equal(t, "ABSA", p.Name())

	names := []string{}
	for _, p := range r.Processors() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"ABSA", "FR"}, names)

	_, err = r.ProcessOne("budget", Input{})
	assert.True(t, errs.IsNotFound(err))
}

func TestProcessAll(t *testing.T) {
	r := NewRegistry(quietLogger())
	require.NoError(t, r.Register(NewABSA()))

	outs, err := r.ProcessAll("ABSA", []Input{
		{Name: "good.csv", Table: absaSheet()},
		{Name: "bad.csv"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	require.Len(t, outs, 1)
	assert.Equal(t, "ABSA", outs[0].Dataset)
}

type countingExtractor struct {
	Shared
	sections, chunks int
}

func (c *countingExtractor) Section(t *table.Table, q table.SectionQuery) (*table.Table, error) {
	c.sections++
	return c.Shared.Section(t, q)
}

func (c *countingExtractor) Chunks(doc string, cfg chunker.Config) chunker.Result {
	c.chunks++
	return c.Shared.Chunks(doc, cfg)
}

func TestProcessorsUseSharedExtractors(t *testing.T) {
	inputs := map[string]Input{
		"ABSA":        {Table: absaSheet()},
		"FR":          {Table: frSheet()},
		"OASIS":       {Table: oasisSheet(), Year: "2024-2025"},
		"Contingency": {Name: "ficomm.txt", Text: minutes},
	}
	ex := &countingExtractor{}
	r, err := NewDefault(quietLogger(), config.Sections{}, WithExtractor(ex))
	require.NoError(t, err)
	require.Len(t, r.Processors(), len(inputs))

	for _, p := range r.Processors() {
		in, ok := inputs[p.Name()]
		require.True(t, ok, p.Name())
		before := ex.sections + ex.chunks
		_, err := r.ProcessOne(p.Name(), in)
		require.NoError(t, err, p.Name())
		assert.Greater(t, ex.sections+ex.chunks, before, "%s bypassed the extractor", p.Name())
	}
	assert.Equal(t, 1, ex.chunks)
}

func TestNewDefaultOverrides(t *testing.T) {
	r, err := NewDefault(quietLogger(), config.Sections{
		Agenda: &config.AgendaSections{Starts: []string{"Grants"}, Terminators: []string{"Closing"}},
		FR:     &config.FRSections{Anchor: "Letter"},
		ABSA:   &config.ABSASections{End: "TOTAL"},
	})
	require.NoError(t, err)

	p, _ := r.Lookup("contingency")
	assert.Equal(t, []string{"Grants"}, p.(*Contingency).Config().Starts())
	p, _ = r.Lookup("fr")
	assert.Equal(t, "Letter", p.(*FR).Anchor)
	p, _ = r.Lookup("absa")
	assert.Equal(t, "TOTAL", p.(*ABSA).End)
	assert.Equal(t, DefaultABSAHeader, p.(*ABSA).Header)
}

func TestNewDefaultBadAgenda(t *testing.T) {
	_, err := NewDefault(quietLogger(), config.Sections{
		Agenda: &config.AgendaSections{Starts: []string{"A", "A"}},
	})
	assert.True(t, errs.IsValidation(err))
}
