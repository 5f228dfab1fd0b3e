package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

// LineInput carries the caller's figures for one line. For an existing line
// only ID and the progress fields are read; a change-order line without ID
// is created from the identity fields.
type LineInput struct {
	ID int64 `json:"id"`

	Article         string           `json:"article"`
	Description     string           `json:"description"`
	TypeTag         string           `json:"type"`
	Unit            string           `json:"unit"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	OrderedQuantity *decimal.Decimal `json:"ordered_quantity"`

	CurrentQuantity    *decimal.Decimal `json:"current_quantity"`
	CurrentAmount      *decimal.Decimal `json:"current_amount"`
	CumulativeQuantity *decimal.Decimal `json:"cumulative_quantity"`
	CumulativeAmount   *decimal.Decimal `json:"cumulative_amount"`

	Remove bool `json:"remove"`
}

func (in LineInput) hasProgress() bool {
	return in.CurrentQuantity != nil || in.CurrentAmount != nil ||
		in.CumulativeQuantity != nil || in.CumulativeAmount != nil
}

func zeroProgress() storage.Progress {
	return storage.Progress{Previous: decimal.Zero, Current: decimal.Zero, Cumulative: decimal.Zero}
}

// seedLines turns order lines into the ORIGINAL lines of a first period.
// Billed progress starts at zero whatever the ordered quantity.
func seedLines(orderLines []storage.OrderLine, sequence int) []storage.Line {
	lines := make([]storage.Line, 0, len(orderLines))
	for i, ol := range orderLines {
		orderLineID := ol.ID
		lines = append(lines, storage.Line{
			LineKey:     uuid.NewString(),
			Origin:      storage.OriginOriginal,
			OrderLineID: &orderLineID,
			Since:       sequence,
			Position:    i + 1,
			Article:     ol.Article,
			Description: ol.Description,
			TypeTag:     ol.TypeTag,
			Unit:        ol.Unit,
			UnitPrice:   ol.UnitPrice,
			OrderedQty:  ol.Quantity,
			Quantity:    zeroProgress(),
			Amount:      zeroProgress(),
		})
	}
	return lines
}

// carryForward copies lines of both origins into the next period:
// previous = cumulative, current = 0, cumulative unchanged.
func carryForward(lines []storage.Line) []storage.Line {
	next := make([]storage.Line, 0, len(lines))
	for _, l := range lines {
		l.ID = 0
		l.PeriodID = 0
		l.Quantity = storage.Progress{Previous: l.Quantity.Cumulative, Current: decimal.Zero, Cumulative: l.Quantity.Cumulative}
		l.Amount = storage.Progress{Previous: l.Amount.Cumulative, Current: decimal.Zero, Cumulative: l.Amount.Cumulative}
		next = append(next, l)
	}
	return next
}

// applyProgress sets the current figures of a line and recomputes its
// cumulative values. Caller-supplied cumulative values must agree. Figures
// are rounded to storage.Scale decimals.
func applyProgress(line storage.Line, in LineInput) (storage.Line, error) {
	label := lineLabel(line)

	if in.CurrentQuantity == nil {
		return line, errs.E(errs.InvalidInput, "%s: current_quantity is required", label)
	}

	qty := line.Quantity
	qty.Current = in.CurrentQuantity.Round(storage.Scale)
	qty.Cumulative = qty.Previous.Add(qty.Current)
	if in.CumulativeQuantity != nil && !in.CumulativeQuantity.Round(storage.Scale).Equal(qty.Cumulative) {
		return line, errs.E(errs.InvalidInput, "%s: cumulative quantity %s does not equal previous %s + current %s",
			label, in.CumulativeQuantity, qty.Previous, qty.Current)
	}

	amount := line.Amount
	amount.Current = qty.Current.Mul(line.UnitPrice).Round(storage.Scale)
	if in.CurrentAmount != nil {
		amount.Current = in.CurrentAmount.Round(storage.Scale)
	}
	amount.Cumulative = amount.Previous.Add(amount.Current)
	if in.CumulativeAmount != nil && !in.CumulativeAmount.Round(storage.Scale).Equal(amount.Cumulative) {
		return line, errs.E(errs.InvalidInput, "%s: cumulative amount %s does not equal previous %s + current %s",
			label, in.CumulativeAmount, amount.Previous, amount.Current)
	}

	line.Quantity = qty
	line.Amount = amount
	return line, nil
}

// newChangeOrderLine builds a CHANGE_ORDER line introduced by the period.
func newChangeOrderLine(in LineInput, sequence, position int) (storage.Line, error) {
	description := strings.TrimSpace(in.Description)
	unit := strings.TrimSpace(in.Unit)

	switch {
	case description == "":
		return storage.Line{}, errs.E(errs.InvalidInput, "change-order line %d: description is required", position)
	case unit == "":
		return storage.Line{}, errs.E(errs.InvalidInput, "change-order line %q: unit is required", description)
	case in.UnitPrice == nil:
		return storage.Line{}, errs.E(errs.InvalidInput, "change-order line %q: unit_price is required", description)
	case in.UnitPrice.IsNegative():
		return storage.Line{}, errs.E(errs.InvalidInput, "change-order line %q: unit_price must not be negative", description)
	}

	ordered := decimal.Zero
	if in.OrderedQuantity != nil {
		ordered = in.OrderedQuantity.Round(storage.Scale)
	}

	return storage.Line{
		LineKey:     uuid.NewString(),
		Origin:      storage.OriginChangeOrder,
		Since:       sequence,
		Position:    position,
		Article:     strings.TrimSpace(in.Article),
		Description: description,
		TypeTag:     in.TypeTag,
		Unit:        unit,
		UnitPrice:   in.UnitPrice.Round(storage.Scale),
		OrderedQty:  ordered,
		Quantity:    zeroProgress(),
		Amount:      zeroProgress(),
	}, nil
}

func lineLabel(l storage.Line) string {
	if l.ID == 0 {
		return fmt.Sprintf("new line %q", l.Description)
	}
	return fmt.Sprintf("line %d (%s)", l.ID, l.Description)
}
