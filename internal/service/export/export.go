// Package export renders a progress period as an .xlsx sheet for the site
// accounting workbook.
package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"chantier-backend/internal/storage"
)

type PeriodReader interface {
	Get(ctx context.Context, periodID int64) (*storage.Period, error)
}

type Service struct {
	periods PeriodReader
}

func New(periods PeriodReader) *Service {
	return &Service{periods: periods}
}

var headers = []string{
	"Article", "Désignation", "Type", "Unité", "Prix unitaire", "Qté commandée",
	"Qté précédente", "Qté période", "Qté cumulée",
	"Montant précédent", "Montant période", "Montant cumulé",
}

const (
	colPrevAmount = 10
	colCurAmount  = 11
	colCumAmount  = 12

	headerRow = 3
)

// PeriodSheet returns the workbook bytes and a file name for the period.
func (s *Service) PeriodSheet(ctx context.Context, periodID int64) ([]byte, string, error) {
	const op = "service.export.PeriodSheet"

	p, err := s.periods.Get(ctx, periodID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Situation %d", p.Sequence)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: header style: %w", op, err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", fmt.Errorf("%s: bold style: %w", op, err)
	}

	w := &sheetWriter{f: f, sheet: sheet}

	// шапка: объект, номер, автор, статус
	w.set(1, 1, title(p))
	w.set(2, 1, p.Author)
	w.set(3, 1, string(p.State))
	w.set(4, 1, p.Comment)

	for i, h := range headers {
		w.set(i+1, headerRow, h)
	}
	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(len(headers), headerRow), headerStyle); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	row := headerRow + 1
	for _, l := range p.Lines {
		w.line(row, l)
		row++
	}

	if len(p.ChangeOrderLines) > 0 {
		w.set(1, row, "Travaux supplémentaires")
		w.style(row, boldStyle)
		row++
		for _, l := range p.ChangeOrderLines {
			w.line(row, l)
			row++
		}
	}

	t := p.Totals
	row++
	w.set(2, row, "Total HT")
	w.amounts(row, t.Amount.Previous, t.Amount.Current, t.Amount.Cumulative)
	w.style(row, boldStyle)
	row++
	w.set(2, row, "TVA "+t.TaxRate.Mul(decimal.NewFromInt(100)).String()+" %")
	w.number(colCurAmount, row, t.CurrentTax)
	w.number(colCumAmount, row, t.CumulativeTax)
	row++
	w.set(2, row, "Total TTC")
	w.number(colCurAmount, row, t.CurrentGross)
	w.number(colCumAmount, row, t.CumulativeGross)
	w.style(row, boldStyle)

	if w.err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, w.err)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cell(1, headerRow+1),
	}); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetColWidth(sheet, "C", "L", 15); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), fileName(p), nil
}

func title(p *storage.Period) string {
	name := fmt.Sprintf("Projet %d", p.Owner.ProjectID)
	if p.Project != nil && p.Project.Name != "" {
		name = p.Project.Name
	}
	if p.Owner.IsSubcontractor() {
		return fmt.Sprintf("%s - sous-traitant %d - situation n°%d", name, p.Owner.SubcontractorID, p.Sequence)
	}
	return fmt.Sprintf("%s - situation n°%d", name, p.Sequence)
}

func fileName(p *storage.Period) string {
	if p.Owner.IsSubcontractor() {
		return fmt.Sprintf("situation_%d_st%d_%02d.xlsx", p.Owner.ProjectID, p.Owner.SubcontractorID, p.Sequence)
	}
	return fmt.Sprintf("situation_%d_%02d.xlsx", p.Owner.ProjectID, p.Sequence)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetWriter keeps the first error so rows can be written without
// checking every cell.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell(col, row), v)
}

func (w *sheetWriter) number(col, row int, d decimal.Decimal) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellFloat(w.sheet, cell(col, row), d.InexactFloat64(), -1, 64)
}

func (w *sheetWriter) style(row, styleID int) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, cell(1, row), cell(len(headers), row), styleID)
}

func (w *sheetWriter) line(row int, l storage.Line) {
	w.set(1, row, l.Article)
	w.set(2, row, l.Description)
	w.set(3, row, l.TypeTag)
	w.set(4, row, l.Unit)
	w.number(5, row, l.UnitPrice)
	w.number(6, row, l.OrderedQty)
	w.number(7, row, l.Quantity.Previous)
	w.number(8, row, l.Quantity.Current)
	w.number(9, row, l.Quantity.Cumulative)
	w.amounts(row, l.Amount.Previous, l.Amount.Current, l.Amount.Cumulative)
}

func (w *sheetWriter) amounts(row int, previous, current, cumulative decimal.Decimal) {
	w.number(colPrevAmount, row, previous)
	w.number(colCurAmount, row, current)
	w.number(colCumAmount, row, cumulative)
}
