package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chantier-backend/internal/storage"
	"chantier-backend/internal/storage/sqlstore"
)

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// AssertDec compares decimals by value, so "4" equals "4.0000".
func AssertDec(t *testing.T, want string, got decimal.Decimal) bool {
	t.Helper()
	return assert.Truef(t, Dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func NewProject(t *testing.T, store *sqlstore.Storage, name string) int64 {
	t.Helper()
	id, err := store.CreateProject(context.Background(), name)
	require.NoError(t, err)
	return id
}

func NewSubcontractor(t *testing.T, store *sqlstore.Storage, name string) int64 {
	t.Helper()
	id, err := store.CreateSubcontractor(context.Background(), name)
	require.NoError(t, err)
	return id
}

func OrderLine(description, unitPrice, quantity string) storage.OrderLine {
	return storage.OrderLine{
		Article:     "ART-" + description,
		Description: description,
		TypeTag:     "supply",
		Unit:        "u",
		UnitPrice:   Dec(unitPrice),
		Quantity:    Dec(quantity),
	}
}

// NewOrder stores an order for the owner. Subcontractor 0 means a client order.
func NewOrder(t *testing.T, store *sqlstore.Storage, owner storage.Owner, status storage.OrderStatus, lines ...storage.OrderLine) *storage.Order {
	t.Helper()

	order := &storage.Order{
		ProjectID:       owner.ProjectID,
		SubcontractorID: owner.SubcontractorID,
		Number:          "CMD-" + string(status),
		Status:          status,
		Lines:           lines,
	}
	order.ComputeTotal()

	err := store.WithinTx(context.Background(), func(ctx context.Context, q storage.Queries) error {
		_, err := q.InsertOrder(ctx, order)
		return err
	})
	require.NoError(t, err)

	return order
}
