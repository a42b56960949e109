package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 277.0
	labelWidth = 27.0
	lineHeight = 4.5
	headHeight = 8.0
)

// Grid is a weekly timetable: one column per day, one row per time block.
// Cells maps row label to column to the lines printed in that cell.
type Grid struct {
	Title   string
	Caption string
	Columns []string
	Rows    []string
	Cells   map[string]map[string][]string
}

// PDFExporter renders timetable grids on landscape A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the grid and returns the PDF bytes.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(strings.ToUpper(grid.Title)), "", 1, "C", false, 0, "")
	}
	if grid.Caption != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr(grid.Caption), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	colWidth := (pageWidth - labelWidth) / float64(len(grid.Columns))
	drawHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(labelWidth, headHeight, "", "1", 0, "C", true, 0, "")
		for _, col := range grid.Columns {
			pdf.CellFormat(colWidth, headHeight, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	drawHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	pdf.SetFont("Arial", "", 7)
	for _, row := range grid.Rows {
		texts := make([]string, len(grid.Columns))
		lines := 1
		for i, col := range grid.Columns {
			texts[i] = tr(strings.Join(grid.Cells[row][col], "\n"))
			if n := len(pdf.SplitLines([]byte(texts[i]), colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines)*lineHeight + 2

		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
			drawHeader()
			pdf.SetFont("Arial", "", 7)
		}

		x, y := pdf.GetXY()
		pdf.SetFont("Arial", "B", 8)
		pdf.Rect(x, y, labelWidth, height, "D")
		pdf.SetXY(x, y+1)
		pdf.MultiCell(labelWidth, lineHeight, tr(row), "", "C", false)
		pdf.SetFont("Arial", "", 7)
		for i := range grid.Columns {
			cx := x + labelWidth + float64(i)*colWidth
			pdf.Rect(cx, y, colWidth, height, "D")
			pdf.SetXY(cx+1, y+1)
			pdf.MultiCell(colWidth-2, lineHeight, texts[i], "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
