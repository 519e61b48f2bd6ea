package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	sink := NewWorkbookSink(path)

	require.NoError(t, sink.Write(Header(), sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{workbookSheet}, f.GetSheetList())

	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	want := [][]string{
		{"type", "sku", "description", "quantity", "total"},
		{"Adjustment", "FBATF", "carrier fee", "-1", "-3.5"},
		{"Order", "SKU-1", "widget", "8", "80"},
	}
	assert.Equal(t, want, rows)
}

func TestWorkbookSinkHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, NewWorkbookSink(path).Write(Header(), nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"type", "sku", "description", "quantity", "total"}}, rows)
}

func TestWorkbookSinkRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("earlier artifact"), 0644))

	err := NewWorkbookSink(path).Write(Header(), sampleRows())
	assert.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier artifact", string(got))
}

func TestWorkbookSinkCreateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.xlsx")

	err := NewWorkbookSink(path).Write(Header(), sampleRows())
	assert.Error(t, err)
}

func TestWorkbookSinkName(t *testing.T) {
	assert.Equal(t, "/tmp/out.xlsx", NewWorkbookSink("/tmp/out.xlsx").Name())
}
