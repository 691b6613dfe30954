package infra

// pdf.go renders the low-stock report with go-pdf/fpdf: an A4 table of every
// item below its minimum, most critical first, with the shortfall and the
// coverage percentage of each.

import (
	"fmt"
	"io"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerarReporteStockBajo writes the report for items (already sorted) to w.
func GenerarReporteStockBajo(w io.Writer, items []dto.StockBajoResponse, generado time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Reporte de stock bajo", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Generado: "+generado.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	cols := []struct {
		titulo string
		ancho  float64
		align  string
	}{
		{"Tipo", 0.12, "L"},
		{"Codigo", 0.20, "L"},
		{"Nombre", 0.32, "L"},
		{"Actual", 0.09, "R"},
		{"Minimo", 0.09, "R"},
		{"Faltante", 0.09, "R"},
		{"Cob. %", 0.09, "R"},
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(contentW*c.ancho, 6, c.titulo, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	if len(items) == 0 {
		pdf.CellFormat(contentW, 6, "Sin items por debajo del minimo", "1", 1, "C", false, 0, "")
	}
	for _, it := range items {
		valores := []string{
			it.ItemTipo,
			recortar(it.Codigo, 28),
			recortar(it.Nombre, 45),
			fmt.Sprintf("%d", it.StockActual),
			fmt.Sprintf("%d", it.StockMinimo),
			fmt.Sprintf("%d", it.Faltante),
			it.Cobertura.StringFixed(2),
		}
		for i, c := range cols {
			pdf.CellFormat(contentW*c.ancho, 6, tr(valores[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Total: %d items", len(items)), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write report: %w", err)
	}
	return nil
}

func recortar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
