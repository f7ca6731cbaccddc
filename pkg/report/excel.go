package report

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// Excel lays the table out from A1: title, period, a blank row, header, data
// and totals.
func Excel(t Table) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellValue(sheetName, "A1", t.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A2", t.Period); err != nil {
		return nil, err
	}

	row := 4
	titles := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}
	if err := writeRow(f, row, titles, header); err != nil {
		return nil, err
	}

	for _, r := range t.Rows {
		row++
		if err := writeRow(f, row, r, 0); err != nil {
			return nil, err
		}
	}
	if len(t.Totals) > 0 {
		row++
		if err := writeRow(f, row, t.Totals, bold); err != nil {
			return nil, err
		}
	}

	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := c.Width * 6
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func writeRow(f *excelize.File, row int, values []interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return err
	}
	if style == 0 || len(values) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, cell, last, style)
}
