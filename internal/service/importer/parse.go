package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	errCouldNotRead = errors.New("Could not read file")
	errEmptyFile    = errors.New("File is empty")
)

type rawRow struct {
	number int // 1-based row in the sheet, header is row 1
	cells  []string
}

type table struct {
	headers      []string
	rows         []rawRow
	sheetWarning string
}

func (r rawRow) cell(i int) string {
	if i < len(r.cells) {
		return r.cells[i]
	}
	return ""
}

func (r rawRow) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readTable(ext string, r io.Reader) (*table, error) {
	var (
		records [][]string
		warning string
		err     error
	)

	switch ext {
	case ".xlsx":
		records, warning, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, errCouldNotRead
	}
	if err != nil {
		return nil, err
	}

	headerAt := -1
	for i, rec := range records {
		if !(rawRow{cells: rec}).blank() {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errEmptyFile
	}

	t := &table{headers: records[headerAt], sheetWarning: warning}
	for i := headerAt + 1; i < len(records); i++ {
		row := rawRow{number: i + 1, cells: records[i]}
		if row.blank() {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// readWorkbook reads the first worksheet only. Cell values are raw so dates
// arrive as Excel serial numbers regardless of the cell's display format.
func readWorkbook(r io.Reader) ([][]string, string, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", errCouldNotRead
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", errEmptyFile
	}

	var warning string
	if len(sheets) > 1 {
		warning = fmt.Sprintf("File contains %d sheets; only the first sheet %q was imported", len(sheets), sheets[0])
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", errCouldNotRead
	}
	return rows, warning, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errCouldNotRead
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}
