package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Queries is the set of reads and writes the ledger and the order service
// run, either directly on the database or inside a transaction.
type Queries interface {
	// LockProject takes the owner-scoped lock for the rest of the transaction.
	LockProject(ctx context.Context, projectID int64) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	GetSubcontractor(ctx context.Context, id int64) (*Subcontractor, error)
	SetProjectBudget(ctx context.Context, projectID int64, budget decimal.Decimal) error

	ValidatedOrderLines(ctx context.Context, owner Owner) ([]OrderLine, error)
	ListOrders(ctx context.Context, projectID int64) ([]*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	InsertOrder(ctx context.Context, order *Order) (int64, error)
	UpdateOrder(ctx context.Context, order *Order) error
	DeleteOrder(ctx context.Context, id int64) error

	LastPeriod(ctx context.Context, owner Owner) (*Period, error)
	GetPeriod(ctx context.Context, id int64) (*Period, error)
	ListPeriods(ctx context.Context, owner Owner) ([]*Period, error)
	HasLaterPeriod(ctx context.Context, period *Period) (bool, error)
	// IsPeriodReferenced reports whether subcontractor periods link to the period.
	IsPeriodReferenced(ctx context.Context, periodID int64) (bool, error)
	InsertPeriod(ctx context.Context, period *Period) (int64, error)
	UpdatePeriodComment(ctx context.Context, periodID int64, comment string) error
	FinalizePeriod(ctx context.Context, periodID int64, at time.Time) error
	DeletePeriod(ctx context.Context, periodID int64) error

	InsertLine(ctx context.Context, periodID int64, line *Line) (int64, error)
	UpdateLineProgress(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, lineID int64) error
}

// Store runs Queries on the pool or, through WithinTx, in one transaction.
type Store interface {
	Queries
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error
}
