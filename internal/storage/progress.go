package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner identifies one ledger: a project (SubcontractorID == 0) or a
// subcontractor working on a project.
type Owner struct {
	ProjectID       int64 `json:"project_id"`
	SubcontractorID int64 `json:"subcontractor_id,omitempty"`
}

func (o Owner) IsSubcontractor() bool { return o.SubcontractorID != 0 }

type PeriodState string

const (
	PeriodOpen      PeriodState = "OPEN"
	PeriodFinalized PeriodState = "FINALIZED"
)

// Scale is the number of decimals quantities, prices and amounts are kept with.
const Scale = 4

type LineOrigin string

const (
	OriginOriginal    LineOrigin = "ORIGINAL"
	OriginChangeOrder LineOrigin = "CHANGE_ORDER"
)

// Progress holds one measure (quantity or amount) of a line over a period.
// Cumulative always equals Previous + Current.
type Progress struct {
	Previous   decimal.Decimal `json:"previous"`
	Current    decimal.Decimal `json:"current"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

func (p Progress) Balanced() bool {
	return p.Previous.Add(p.Current).Equal(p.Cumulative)
}

type Line struct {
	ID          int64           `json:"id"`
	PeriodID    int64           `json:"period_id"`
	LineKey     string          `json:"line_key"`
	Origin      LineOrigin      `json:"origin"`
	OrderLineID *int64          `json:"order_line_id,omitempty"`
	Since       int             `json:"since_sequence"` // sequence of the period that introduced the line
	Position    int             `json:"position"`
	Article     string          `json:"article"`
	Description string          `json:"description"`
	TypeTag     string          `json:"type"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	OrderedQty  decimal.Decimal `json:"ordered_quantity"`
	Quantity    Progress        `json:"quantity"`
	Amount      Progress        `json:"amount"`
}

type Period struct {
	ID              int64       `json:"id"`
	Owner           Owner       `json:"owner"`
	Sequence        int         `json:"sequence"`
	Author          string      `json:"author"`
	Comment         string      `json:"comment"`
	State           PeriodState `json:"state"`
	ProjectPeriodID *int64      `json:"project_period_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	FinalizedAt     *time.Time  `json:"finalized_at,omitempty"`

	Project          *Project     `json:"project,omitempty"`
	Lines            []Line       `json:"lines"`
	ChangeOrderLines []Line       `json:"change_order_lines"`
	Totals           PeriodTotals `json:"totals"`
}

// AllLines returns original lines followed by change-order lines.
func (p *Period) AllLines() []Line {
	all := make([]Line, 0, len(p.Lines)+len(p.ChangeOrderLines))
	all = append(all, p.Lines...)
	return append(all, p.ChangeOrderLines...)
}

// AddLine files a line into the collection matching its origin.
func (p *Period) AddLine(l Line) {
	if l.Origin == OriginChangeOrder {
		p.ChangeOrderLines = append(p.ChangeOrderLines, l)
		return
	}
	p.Lines = append(p.Lines, l)
}

type PeriodTotals struct {
	Original        Progress        `json:"original"`
	ChangeOrder     Progress        `json:"change_order"`
	Amount          Progress        `json:"amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	CurrentTax      decimal.Decimal `json:"current_tax"`
	CurrentGross    decimal.Decimal `json:"current_gross"`
	CumulativeTax   decimal.Decimal `json:"cumulative_tax"`
	CumulativeGross decimal.Decimal `json:"cumulative_gross"`
}

// SubcontractorPeriods is the listing of one subcontractor's ledger.
type SubcontractorPeriods struct {
	Subcontractor *Subcontractor `json:"subcontractor"`
	Periods       []*Period      `json:"periods"`
}
