package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var pdfWidths = []float64{30, 48, 20, 28, 22, 20, 20, 20, 18}

// WritePDF renders the export rows as a landscape A4 table.
func WritePDF(w io.Writer, rows []Row, start, end time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(40, 10, "Attendance Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	for i, column := range Header {
		pdf.CellFormat(pdfWidths[i], 7, column, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, value := range row.values() {
			pdf.CellFormat(pdfWidths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
