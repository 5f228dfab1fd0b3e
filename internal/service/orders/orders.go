// Package orders maintains project and subcontractor orders. Every mutation
// recomputes the project budget in the same transaction.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"chantier-backend/internal/errs"
	"chantier-backend/internal/service/budget"
	"chantier-backend/internal/storage"
)

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

type LineInput struct {
	Article     string          `json:"article"`
	Description string          `json:"description"`
	TypeTag     string          `json:"type"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type Input struct {
	SubcontractorID int64               `json:"subcontractor_id"`
	Number          string              `json:"number"`
	Status          storage.OrderStatus `json:"status"`
	Lines           []LineInput         `json:"lines"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Number) == "" {
		return errs.E(errs.InvalidInput, "order number is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return errs.E(errs.InvalidInput, "unknown order status %q", in.Status)
	}
	if in.SubcontractorID < 0 {
		return errs.E(errs.InvalidInput, "invalid subcontractor id %d", in.SubcontractorID)
	}
	for i, l := range in.Lines {
		switch {
		case strings.TrimSpace(l.Description) == "":
			return errs.E(errs.InvalidInput, "lines[%d]: description is required", i)
		case strings.TrimSpace(l.Unit) == "":
			return errs.E(errs.InvalidInput, "lines[%d]: unit is required", i)
		case l.UnitPrice.IsNegative():
			return errs.E(errs.InvalidInput, "lines[%d]: unit_price must not be negative", i)
		case l.Quantity.IsNegative():
			return errs.E(errs.InvalidInput, "lines[%d]: quantity must not be negative", i)
		}
	}
	return nil
}

// apply copies the input onto o and refreshes its total.
func (in Input) apply(o *storage.Order) {
	o.Number = strings.TrimSpace(in.Number)
	o.Status = in.Status
	if o.Status == "" {
		o.Status = storage.OrderDraft
	}
	o.Lines = make([]storage.OrderLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		o.Lines = append(o.Lines, storage.OrderLine{
			Position:    i + 1,
			Article:     strings.TrimSpace(l.Article),
			Description: strings.TrimSpace(l.Description),
			TypeTag:     l.TypeTag,
			Unit:        strings.TrimSpace(l.Unit),
			UnitPrice:   l.UnitPrice.Round(storage.Scale),
			Quantity:    l.Quantity.Round(storage.Scale),
		})
	}
	o.ComputeTotal()
}

func (s *Service) List(ctx context.Context, projectID int64) ([]*storage.Order, error) {
	const op = "service.orders.List"

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, fail(op, notFound(err, "project %d not found", projectID))
	}

	orders, err := s.store.ListOrders(ctx, projectID)
	if err != nil {
		return nil, fail(op, err)
	}
	return orders, nil
}

func (s *Service) Create(ctx context.Context, projectID int64, in Input) (*storage.Order, error) {
	const op = "service.orders.Create"

	if err := in.validate(); err != nil {
		return nil, err
	}

	order := &storage.Order{ProjectID: projectID, SubcontractorID: in.SubcontractorID}
	in.apply(order)

	err := s.store.WithinTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.LockProject(ctx, projectID); err != nil {
			return notFound(err, "project %d not found", projectID)
		}
		if order.SubcontractorID != 0 {
			if _, err := q.GetSubcontractor(ctx, order.SubcontractorID); err != nil {
				return notFound(err, "subcontractor %d not found", order.SubcontractorID)
			}
		}
		if _, err := q.InsertOrder(ctx, order); err != nil {
			return err
		}
		_, err := budget.Recompute(ctx, q, projectID)
		return err
	})
	if err != nil {
		return nil, fail(op, err)
	}

	return order, nil
}

// Update replaces the header and the lines of an order. LOCKED orders are
// immutable; the subcontractor of an order never changes.
func (s *Service) Update(ctx context.Context, orderID int64, in Input) (*storage.Order, error) {
	const op = "service.orders.Update"

	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *storage.Order
	err := s.withOrder(ctx, orderID, func(ctx context.Context, q storage.Queries, o *storage.Order) error {
		if o.Status == storage.OrderLocked {
			return errs.E(errs.PreconditionFailed, "order %s is locked and can no longer be modified", o.Number)
		}
		if in.SubcontractorID != o.SubcontractorID {
			return errs.E(errs.InvalidInput, "the subcontractor of order %s cannot be changed", o.Number)
		}

		in.apply(o)
		if err := q.UpdateOrder(ctx, o); err != nil {
			return err
		}
		if _, err := budget.Recompute(ctx, q, o.ProjectID); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, fail(op, err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, orderID int64) error {
	const op = "service.orders.Delete"

	err := s.withOrder(ctx, orderID, func(ctx context.Context, q storage.Queries, o *storage.Order) error {
		if o.Status == storage.OrderLocked {
			return errs.E(errs.PreconditionFailed, "order %s is locked and cannot be deleted", o.Number)
		}
		if err := q.DeleteOrder(ctx, o.ID); err != nil {
			return err
		}
		_, err := budget.Recompute(ctx, q, o.ProjectID)
		return err
	})
	if err != nil {
		return fail(op, err)
	}

	return nil
}

func (s *Service) withOrder(ctx context.Context, orderID int64, fn func(ctx context.Context, q storage.Queries, o *storage.Order) error) error {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return notFound(err, "order %d not found", orderID)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.LockProject(ctx, o.ProjectID); err != nil {
			return notFound(err, "project %d not found", o.ProjectID)
		}
		current, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "order %d not found", orderID)
		}
		return fn(ctx, q, current)
	})
}

func fail(op string, err error) error {
	var e *errs.Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return errs.Wrap(errs.NotFound, err, "record not found")
	default:
		return errs.Wrap(errs.Internal, fmt.Errorf("%s: %w", op, err), "orders")
	}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.Wrap(errs.NotFound, err, fmt.Sprintf(format, args...))
	}
	return err
}
