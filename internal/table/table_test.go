package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGeneratesColumnNames(t *testing.T) {
	row := make([]string, 12)
	tbl := New([][]string{{"a"}, row})
	assert.Len(t, tbl.Columns, 12)
	assert.Equal(t, "0", tbl.Columns[0])
	assert.Equal(t, "11", tbl.Columns[11])
	assert.Equal(t, 1, tbl.Index("1"))
}

func TestColumnRefString(t *testing.T) {
	assert.Equal(t, "#0", ByIndex(0).String())
	assert.Equal(t, "#12", ByIndex(12).String())
	assert.Equal(t, "Org", ByName("Org").String())
}
