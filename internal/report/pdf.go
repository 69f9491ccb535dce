package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"

	"github.com/manojkp08/adpulse/internal/models"
)

// Filename is the suggested download name for the rendered document.
const Filename = "Executive_Ad_Report.pdf"

const reportTitle = "Executive Ad Performance Report"

// PDF renders stats plus an optional narrative into a single-page document.
// An empty narrative drops the summary section; the metric table always
// renders, so the byte stream is never empty.
func PDF(stats *models.AggregateStats, narrative string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(reportTitle, true)
	doc.AddPage()

	// Core fonts are cp1252; fold anything the model produced outside it.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 12, reportTitle)
	doc.Ln(18)

	for _, f := range Fields(stats, language.English) {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(60, 8, f.Label, "1", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 8, tr(f.Value), "1", 1, "L", false, 0, "")
	}

	if narrative != "" {
		doc.Ln(8)
		doc.SetFont("Helvetica", "B", 13)
		doc.Cell(0, 10, "Executive Summary")
		doc.Ln(12)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, tr(narrative), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
