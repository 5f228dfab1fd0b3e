package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Budget decimal.Decimal `json:"budget"`
}

type Subcontractor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OrderStatus string

const (
	OrderDraft     OrderStatus = "DRAFT"
	OrderValidated OrderStatus = "VALIDATED"
	OrderLocked    OrderStatus = "LOCKED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderValidated, OrderLocked, OrderCancelled:
		return true
	}
	return false
}

// Billable orders feed both the first progress period and the project budget.
func (s OrderStatus) Billable() bool {
	return s == OrderValidated || s == OrderLocked
}

type Order struct {
	ID              int64           `json:"id"`
	ProjectID       int64           `json:"project_id"`
	SubcontractorID int64           `json:"subcontractor_id,omitempty"`
	Number          string          `json:"number"`
	Status          OrderStatus     `json:"status"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []OrderLine     `json:"lines"`
}

type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Position    int             `json:"position"`
	Article     string          `json:"article"`
	Description string          `json:"description"`
	TypeTag     string          `json:"type"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func (l OrderLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(Scale)
}

// ComputeTotal refreshes o.Total from its lines.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount())
	}
	o.Total = total
	return total
}
