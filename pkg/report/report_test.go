package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable(rows int) Table {
	t := Table{
		Title:  "Commission report",
		Period: PeriodLabel(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)),
		Columns: []Column{
			{Title: "Agent", Width: 3},
			{Title: "Deals", Width: 1, Numeric: true},
			{Title: "Commission", Width: 2, Numeric: true},
		},
		Totals: []interface{}{"Total", int64(rows), float64(rows) * 1500},
	}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []interface{}{"Agent Smith", int64(1), 1500.0})
	}
	return t
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "xlsx": FormatXLSX, " pdf ": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFileName(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "sources-2026-10-01-2026-10-31.pdf", FormatPDF.FileName("sources", from, to))
}

func TestExcelLayout(t *testing.T) {
	buf, err := Excel(sampleTable(2))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Commission report", rows[0][0])
	assert.Equal(t, "Period: 01 Oct 2026 - 31 Oct 2026", rows[1][0])
	assert.Equal(t, []string{"Agent", "Deals", "Commission"}, rows[3])
	assert.Equal(t, []string{"Agent Smith", "1", "1500"}, rows[4])
	assert.Equal(t, []string{"Total", "2", "3000"}, rows[6])
}

func TestPDFRepeatsHeaderAcrossPages(t *testing.T) {
	pdf := buildPDF(sampleTable(80))
	require.False(t, pdf.Err(), "pdf error: %v", pdf.Error())
	assert.Greater(t, pdf.PageNo(), 1)

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, sampleTable(3)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestColumnWidthsSplitProportionally(t *testing.T) {
	w := columnWidths([]Column{{Width: 1}, {Width: 3}, {}}, 100)
	assert.InDelta(t, 20, w[0], 0.001)
	assert.InDelta(t, 60, w[1], 0.001)
	assert.InDelta(t, 20, w[2], 0.001)
}
