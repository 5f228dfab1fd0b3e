package ledger

import (
	"github.com/shopspring/decimal"

	"chantier-backend/internal/storage"
)

func addProgress(a, b storage.Progress) storage.Progress {
	return storage.Progress{
		Previous:   a.Previous.Add(b.Previous),
		Current:    a.Current.Add(b.Current),
		Cumulative: a.Cumulative.Add(b.Cumulative),
	}
}

// summarize fills p.Totals. Tax is a flat rate on the net amounts, rounded to cents.
func summarize(p *storage.Period, taxRate decimal.Decimal) {
	t := storage.PeriodTotals{
		Original:    zeroProgress(),
		ChangeOrder: zeroProgress(),
		TaxRate:     taxRate,
	}

	for _, l := range p.Lines {
		t.Original = addProgress(t.Original, l.Amount)
	}
	for _, l := range p.ChangeOrderLines {
		t.ChangeOrder = addProgress(t.ChangeOrder, l.Amount)
	}
	t.Amount = addProgress(t.Original, t.ChangeOrder)

	t.CurrentTax = t.Amount.Current.Mul(taxRate).Round(2)
	t.CurrentGross = t.Amount.Current.Add(t.CurrentTax)
	t.CumulativeTax = t.Amount.Cumulative.Mul(taxRate).Round(2)
	t.CumulativeGross = t.Amount.Cumulative.Add(t.CumulativeTax)

	p.Totals = t
}
