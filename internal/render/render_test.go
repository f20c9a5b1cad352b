package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwvctl/dwv/internal/results"
)

func TestTableAlignment(t *testing.T) {
	table := &Table{Columns: []string{"name", "Data Type"}}
	table.AddRow("FIELD_ONE", "text")
	table.AddRow("F2", "number")

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	want := "" +
		"name     |Data Type|\n" +
		"---------|---------|\n" +
		"FIELD_ONE|text     |\n" +
		"F2       |number   |\n"
	assert.Equal(t, want, buf.String())
}

func TestTableHeaderWiderThanCells(t *testing.T) {
	table := &Table{Columns: []string{"Forward Indexed"}}
	table.AddRow("true")

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	assert.Equal(t, "Forward Indexed|\n---------------|\ntrue           |\n", buf.String())
}

func TestTableShortRowPadded(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}
	table.AddRow("x")

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))
	assert.Contains(t, buf.String(), "x| |")
}

func TestRecordsDeterministicOrder(t *testing.T) {
	records := []results.Record{
		{"zeta": results.Single("1"), "alpha": results.Single("2")},
		{"field1": results.Multi{"a", "b"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Records(&buf, records))

	want := "" +
		"alpha: 2\n" +
		"zeta: 1\n" +
		"----------\n" +
		"field1: a, b\n" +
		"----------\n"
	assert.Equal(t, want, buf.String())
}

func TestRecordsHidesRawData(t *testing.T) {
	records := []results.Record{
		{"RAWDATA_PAYLOAD": results.Single("aGVsbG8=")},
	}

	var buf bytes.Buffer
	require.NoError(t, Records(&buf, records))
	assert.Contains(t, buf.String(), "RAWDATA_PAYLOAD: Contains raw data")
	assert.NotContains(t, buf.String(), "aGVsbG8=")
}

func TestRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Records(&buf, nil))
	assert.Empty(t, buf.String())
}
