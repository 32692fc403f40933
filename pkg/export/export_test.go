package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable(title string) Table {
	return Table{
		Title:   title,
		Headers: []string{"No.", "Name", "Class", "Rate (%)", "Late", "Early leave", "Math hours", "Math required"},
		Rows: [][]string{
			{"1", "山田 太郎", "1-A", "100.0", "1", "0", "1.8", "35"},
			{"2", "Zoë", "1-A", "no data", "0", "0", "0", "35"},
		},
	}
}

func TestTableValidate(t *testing.T) {
	assert.Error(t, Table{Title: "empty"}.Validate())

	bad := sampleTable("bad")
	bad.Rows = append(bad.Rows, []string{"3"})
	assert.Error(t, bad.Validate())
	assert.NoError(t, sampleTable("ok").Validate())
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable("Month 2025-06"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Name", records[0][1])
	assert.Equal(t, "山田 太郎", records[1][1])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable("First term"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))

	_, err = NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}

func TestXLSXExporterRenderSheets(t *testing.T) {
	book := Workbook{Tables: []Table{
		sampleTable("Month 2025-06"),
		sampleTable("First term"),
		sampleTable("First term"),
		sampleTable("Year 2025/26: all"),
	}}
	out, err := NewXLSXExporter().Render(book)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Month 2025-06", "First term", "First term (2)", "Year 2025-26- all"}, f.GetSheetList())
	rows, err := f.GetRows("First term")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Math required", rows[0][7])
	assert.Equal(t, "山田 太郎", rows[1][1])
}

func TestXLSXExporterRequiresTables(t *testing.T) {
	_, err := NewXLSXExporter().Render(Workbook{})
	assert.Error(t, err)
}

func TestUniqueSheetNameTruncates(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	first := uniqueSheetName(long, 0, used)
	second := uniqueSheetName(long, 1, used)
	assert.Len(t, first, maxSheetName)
	assert.Len(t, second, maxSheetName)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "Sheet3", uniqueSheetName("  ", 2, used))
}
