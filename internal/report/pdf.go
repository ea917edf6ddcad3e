package report

import (
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfRowHeight    = 6.0
	pdfMargin       = 10.0
	pdfBottomMargin = 15.0
)

// WritePDF renders every table with a shaded header row that repeats after
// page breaks. Amount cells are right aligned.
func WritePDF(w io.Writer, doc Document) error {
	orientation := "P"
	if doc.Landscape {
		orientation = "L"
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfBottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Generated on: "+doc.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "C", false, 0, "")
	for _, line := range doc.Summary {
		pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin

	for _, table := range doc.Tables {
		if len(doc.Tables) > 1 {
			ensureSpace(pdf, 3*pdfRowHeight)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 8, tr(table.Title), "", 1, "L", false, 0, "")
		}
		widths := scaleWidths(table, usable)
		writeTable(pdf, table, widths, tr)
		pdf.Ln(6)
	}

	if len(doc.Tables) == 0 || (len(doc.Tables) == 1 && len(doc.Tables[0].Rows) == 0) {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No transactions found.", "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

func writeTable(pdf *fpdf.Fpdf, table Table, widths []float64, tr func(string) string) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(217, 225, 242)
		for i, h := range table.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	ensureSpace(pdf, 2*pdfRowHeight)
	header()

	for _, row := range table.Rows {
		if ensureSpace(pdf, pdfRowHeight) {
			header()
		}
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			align := "L"
			text := cellText(cell)
			if amount, ok := cell.(float64); ok {
				align = "R"
				text = Money(amount)
			}
			pdf.CellFormat(widths[i], pdfRowHeight, fit(pdf, tr(text), widths[i]-2), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// ensureSpace starts a new page when fewer than height millimetres remain
// and reports whether it did.
func ensureSpace(pdf *fpdf.Fpdf, height float64) bool {
	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY()+height <= pageHeight-pdfBottomMargin {
		return false
	}
	pdf.AddPage()
	return true
}

func scaleWidths(table Table, usable float64) []float64 {
	weights := table.Widths
	if len(weights) != len(table.Headers) {
		weights = make([]float64, len(table.Headers))
		for i := range weights {
			weights[i] = 1
		}
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}

	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = usable * w / sum
	}
	return out
}

// fit truncates s with an ellipsis so it fits in width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
