// Package budget keeps the project's displayed budget in line with its orders.
package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"chantier-backend/internal/storage"
)

// Sum adds up the client orders that count towards the budget.
// Subcontractor orders are costs and never count.
func Sum(orders []*storage.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.SubcontractorID != 0 || !o.Status.Billable() {
			continue
		}
		total = total.Add(o.Total)
	}
	return total
}

// Recompute stores the budget of the project. Call it with the transaction
// that changed the orders so no stale budget is ever visible.
func Recompute(ctx context.Context, q storage.Queries, projectID int64) (decimal.Decimal, error) {
	const op = "service.budget.Recompute"

	orders, err := q.ListOrders(ctx, projectID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	total := Sum(orders)
	if err := q.SetProjectBudget(ctx, projectID, total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return total, nil
}
