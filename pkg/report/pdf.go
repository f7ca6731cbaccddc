package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 12.0
	pdfRowHeight = 7.0
)

// PDF writes the table on landscape A4. The header row is repeated at the top
// of every page.
func PDF(w io.Writer, t Table) error {
	return buildPDF(t).Output(w)
}

func buildPDF(t Table) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	widths := columnWidths(t.Columns, pageW-2*pdfMargin)

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 9, tr(t.Title), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, 6, tr(t.Period), "", 1, "L", false, 0, "")
			pdf.Ln(3)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(31, 41, 55)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(c.Title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	for _, r := range t.Rows {
		writePDFRow(pdf, tr, t.Columns, widths, r)
	}
	if len(t.Totals) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		writePDFRow(pdf, tr, t.Columns, widths, t.Totals)
	}
	return pdf
}

func writePDFRow(pdf *fpdf.Fpdf, tr func(string) string, cols []Column, widths []float64, values []interface{}) {
	for i, c := range cols {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		align := "L"
		if c.Numeric {
			align = "R"
		}
		pdf.CellFormat(widths[i], pdfRowHeight, tr(formatCell(v)), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func columnWidths(cols []Column, total float64) []float64 {
	sum := 0.0
	for _, c := range cols {
		w := c.Width
		if w <= 0 {
			w = 1
		}
		sum += w
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		w := c.Width
		if w <= 0 {
			w = 1
		}
		widths[i] = total * w / sum
	}
	return widths
}
