package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

func frClean() *table.Table {
	return table.WithHeader([][]string{
		{"Appx", "Org Name", "Request Type", "Amount Requested", "Amount Allowed", "Committee Status"},
		{"A", "Club A", "Finance Rule", "500", "400", "Approved"},
		{"B", "Club B ", "Contingency", "300", "300", "Pending"},
		{"C", "Club C", "Sponsorship", "100", "100", "Approved"},
	})
}

func agendaOut() *table.Table {
	return table.WithHeader([][]string{
		{"Entity Name", "Request Type", "Decision", "Amount", "Date"},
		{"Club B", "Contingency", "Denied or Tabled Indefinitely", "0", "03/03/2025"},
		{"Club D", "Contingency", "Approved", "250", "03/03/2025"},
	})
}

func TestReconcile(t *testing.T) {
	out, sum, err := Reconcile(frClean(), agendaOut())
	require.NoError(t, err)

	assert.Equal(t, ReconcileSummary{Both: 1, FROnly: 2, AgendaOnly: 1, Total: 4}, sum)
	assert.Equal(t, [][]string{
		{"Org Name", "Request Type", "Amount Requested", "Amount", "Committee Status", "Source", "Date"},
		{"Club B", "Contingency", "300", "0", "Denied or Tabled Indefinitely", SourceBoth, "03/03/2025"},
		{"Club D", "Contingency", "", "250", "Approved", SourceAgenda, "03/03/2025"},
		{"Club A", "Finance Rule", "500", "400", "Approved", SourceFROnly, ""},
		{"Club C", "Sponsorship", "100", "100", "Approved", SourceFROnly, ""},
	}, out.Strings())
}

func TestReconcileZeroesUnapproved(t *testing.T) {
	fr := table.WithHeader([][]string{
		{"Org Name", "Request Type", "Amount", "Committee Status"},
		{"Club", "Other", "75", "Pending"},
	})
	out, _, err := Reconcile(fr, agendaOut())
	require.NoError(t, err)
	rows := out.Strings()
	assert.Equal(t, []string{"Club", "Other", "0", "Pending", SourceFROnly, ""}, rows[len(rows)-1])
}

func TestReconcileDuplicates(t *testing.T) {
	agenda := table.WithHeader([][]string{
		{"Entity Name", "Request Type", "Decision", "Amount", "Date"},
		{"Club B", "Contingency", "Approved", "10", "03/03/2025"},
		{"Club B", "Contingency", "Approved", "20", "03/10/2025"},
	})
	out, sum, err := Reconcile(frClean(), agenda)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Both)
	assert.Equal(t, 4, out.Len())
}

func TestReconcileEmptySide(t *testing.T) {
	out, sum, err := Reconcile(nil, agendaOut())
	require.NoError(t, err)
	assert.Equal(t, agendaOut().Strings(), out.Strings())
	assert.Equal(t, 2, sum.AgendaOnly)

	out, sum, err = Reconcile(frClean(), &table.Table{})
	require.NoError(t, err)
	assert.Equal(t, frClean().Strings(), out.Strings())
	assert.Equal(t, 3, sum.FROnly)
}

func TestReconcileMissingName(t *testing.T) {
	bad := table.WithHeader([][]string{{"Club"}, {"x"}})
	_, _, err := Reconcile(bad, agendaOut())
	assert.True(t, errs.IsNotFound(err))
}

func TestReconciledName(t *testing.T) {
	tests := map[string]string{
		"FR 24_25 S2 Cleaned.csv": "FR 24_25 S2 Finalized",
		"FR_clean_2025-03-03.csv": "FR_final_2025-03-03",
		"FR_clean_undated.csv":    "FR_final_undated",
		"resolution.xlsx":         "resolution Finalized",
		"":                        "Reconciled",
	}
	for in, want := range tests {
		assert.Equal(t, want, ReconciledName(in), in)
	}
}
