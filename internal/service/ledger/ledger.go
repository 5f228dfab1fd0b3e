// Package ledger owns the progress-billing ledger: numbered periods whose
// lines carry cumulative quantities and amounts forward from one period to
// the next. The same Ledger serves the project and every subcontractor; an
// instance is bound to one kind of owner, one order source and, for
// subcontractors, a link to the project period.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

// OrderSource returns the validated order lines a first period is seeded from.
type OrderSource func(ctx context.Context, q storage.Queries, owner storage.Owner) ([]storage.OrderLine, error)

// Linker resolves the project period a new period is grouped with.
// requested is the caller's choice, nil for the default.
type Linker func(ctx context.Context, q storage.Queries, owner storage.Owner, requested *int64) (*int64, error)

type Ledger struct {
	name          string
	subcontractor bool
	store         storage.Store
	source        OrderSource
	link          Linker
	taxRate       decimal.Decimal
	now           func() time.Time
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewProjectLedger(store storage.Store, taxRate decimal.Decimal, opts ...Option) *Ledger {
	return newLedger("project", false, store, ProjectOrders, nil, taxRate, opts)
}

func NewSubcontractorLedger(store storage.Store, taxRate decimal.Decimal, opts ...Option) *Ledger {
	return newLedger("subcontractor", true, store, SubcontractorOrders, LinkProjectPeriod, taxRate, opts)
}

func newLedger(name string, sub bool, store storage.Store, source OrderSource, link Linker, taxRate decimal.Decimal, opts []Option) *Ledger {
	l := &Ledger{
		name:          name,
		subcontractor: sub,
		store:         store,
		source:        source,
		link:          link,
		taxRate:       taxRate,
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProjectOrders reads the client orders of the project.
func ProjectOrders(ctx context.Context, q storage.Queries, owner storage.Owner) ([]storage.OrderLine, error) {
	return q.ValidatedOrderLines(ctx, storage.Owner{ProjectID: owner.ProjectID})
}

// SubcontractorOrders reads the orders placed with the subcontractor on the project.
func SubcontractorOrders(ctx context.Context, q storage.Queries, owner storage.Owner) ([]storage.OrderLine, error) {
	return q.ValidatedOrderLines(ctx, owner)
}

// LinkProjectPeriod checks the requested project period or falls back to the
// project's latest one. Without any project period the link stays empty.
func LinkProjectPeriod(ctx context.Context, q storage.Queries, owner storage.Owner, requested *int64) (*int64, error) {
	if requested != nil {
		p, err := q.GetPeriod(ctx, *requested)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.E(errs.InvalidInput, "project period %d does not exist", *requested)
		}
		if err != nil {
			return nil, err
		}
		if p.Owner.IsSubcontractor() || p.Owner.ProjectID != owner.ProjectID {
			return nil, errs.E(errs.InvalidInput, "period %d is not a progress period of project %d", *requested, owner.ProjectID)
		}
		return &p.ID, nil
	}

	last, err := q.LastPeriod(ctx, storage.Owner{ProjectID: owner.ProjectID})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last.ID, nil
}

type AdvanceRequest struct {
	Author string
	// ProjectPeriodID is only read by the subcontractor ledger.
	ProjectPeriodID *int64
}

// UpdateInput is the bulk edit of an open period. A nil Comment leaves the
// comment untouched.
type UpdateInput struct {
	Comment          *string     `json:"comment"`
	Lines            []LineInput `json:"lines"`
	ChangeOrderLines []LineInput `json:"change_order_lines"`
}

// Advance creates the next period of owner: seeded from the validated order
// for the first one, carried forward from the finalized last one otherwise.
func (l *Ledger) Advance(ctx context.Context, owner storage.Owner, req AdvanceRequest) (*storage.Period, error) {
	const op = "service.ledger.Advance"

	if strings.TrimSpace(req.Author) == "" {
		return nil, errs.E(errs.Unauthenticated, "no caller identity")
	}
	if err := l.checkOwner(owner); err != nil {
		return nil, err
	}

	var created *storage.Period
	err := l.store.WithinTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.LockProject(ctx, owner.ProjectID); err != nil {
			return notFound(err, "project %d not found", owner.ProjectID)
		}
		project, err := q.GetProject(ctx, owner.ProjectID)
		if err != nil {
			return notFound(err, "project %d not found", owner.ProjectID)
		}
		if l.subcontractor {
			if _, err := q.GetSubcontractor(ctx, owner.SubcontractorID); err != nil {
				return notFound(err, "subcontractor %d not found", owner.SubcontractorID)
			}
		}

		next := &storage.Period{
			Owner:     owner,
			Author:    req.Author,
			State:     storage.PeriodOpen,
			CreatedAt: l.now(),
			Project:   project,
		}

		last, err := q.LastPeriod(ctx, owner)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			orderLines, err := l.source(ctx, q, owner)
			if err != nil {
				return err
			}
			if len(orderLines) == 0 {
				return errs.E(errs.PreconditionFailed, "no validated order to start the %s ledger from", l.name)
			}
			next.Sequence = 1
			next.Lines = seedLines(orderLines, next.Sequence)
			next.ChangeOrderLines = []storage.Line{}
		case err != nil:
			return err
		default:
			if err := ensureFinalized(last); err != nil {
				return err
			}
			next.Sequence = last.Sequence + 1
			next.Comment = last.Comment
			next.Lines = carryForward(last.Lines)
			next.ChangeOrderLines = carryForward(last.ChangeOrderLines)
		}

		if l.link != nil {
			linked, err := l.link(ctx, q, owner, req.ProjectPeriodID)
			if err != nil {
				return err
			}
			next.ProjectPeriodID = linked
		}

		if _, err := q.InsertPeriod(ctx, next); err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, l.fail(op, err)
	}

	summarize(created, l.taxRate)
	return created, nil
}

// Get returns one period with its lines, project and totals.
func (l *Ledger) Get(ctx context.Context, periodID int64) (*storage.Period, error) {
	const op = "service.ledger.Get"

	p, err := l.load(ctx, periodID)
	if err != nil {
		return nil, l.fail(op, err)
	}

	project, err := l.store.GetProject(ctx, p.Owner.ProjectID)
	if err != nil {
		return nil, l.fail(op, notFound(err, "project %d not found", p.Owner.ProjectID))
	}
	p.Project = project
	summarize(p, l.taxRate)

	return p, nil
}

// List returns the owner's periods, newest first.
func (l *Ledger) List(ctx context.Context, owner storage.Owner) ([]*storage.Period, error) {
	const op = "service.ledger.List"

	_, periods, err := l.list(ctx, owner)
	if err != nil {
		return nil, l.fail(op, err)
	}
	return periods, nil
}

// ListSubcontractor returns the subcontractor together with its periods.
func (l *Ledger) ListSubcontractor(ctx context.Context, owner storage.Owner) (*storage.SubcontractorPeriods, error) {
	const op = "service.ledger.ListSubcontractor"

	sub, periods, err := l.list(ctx, owner)
	if err != nil {
		return nil, l.fail(op, err)
	}
	return &storage.SubcontractorPeriods{Subcontractor: sub, Periods: periods}, nil
}

func (l *Ledger) list(ctx context.Context, owner storage.Owner) (*storage.Subcontractor, []*storage.Period, error) {
	if err := l.checkOwner(owner); err != nil {
		return nil, nil, err
	}

	var (
		project *storage.Project
		sub     *storage.Subcontractor
		periods []*storage.Period
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = l.store.GetProject(gctx, owner.ProjectID)
		return notFound(err, "project %d not found", owner.ProjectID)
	})
	if l.subcontractor {
		g.Go(func() error {
			var err error
			sub, err = l.store.GetSubcontractor(gctx, owner.SubcontractorID)
			return notFound(err, "subcontractor %d not found", owner.SubcontractorID)
		})
	}
	g.Go(func() error {
		var err error
		periods, err = l.store.ListPeriods(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, p := range periods {
		p.Project = project
		summarize(p, l.taxRate)
	}
	return sub, periods, nil
}

// Update applies current-period figures, change-order additions and
// removals, and the comment to an open period.
func (l *Ledger) Update(ctx context.Context, periodID int64, in UpdateInput) (*storage.Period, error) {
	const op = "service.ledger.Update"

	err := l.withPeriod(ctx, periodID, func(ctx context.Context, q storage.Queries, p *storage.Period) error {
		if err := ensureOpen(p); err != nil {
			return err
		}

		plan, err := planUpdate(p, in)
		if err != nil {
			return err
		}

		if in.Comment != nil {
			if err := q.UpdatePeriodComment(ctx, p.ID, *in.Comment); err != nil {
				return err
			}
		}
		for _, line := range plan.updated {
			if err := q.UpdateLineProgress(ctx, line); err != nil {
				return err
			}
		}
		for _, id := range plan.removed {
			if err := q.DeleteLine(ctx, id); err != nil {
				return err
			}
		}
		for i := range plan.added {
			if _, err := q.InsertLine(ctx, p.ID, &plan.added[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, l.fail(op, err)
	}

	return l.Get(ctx, periodID)
}

// Finalize moves an open period to FINALIZED. There is no way back.
func (l *Ledger) Finalize(ctx context.Context, periodID int64) (*storage.Period, error) {
	const op = "service.ledger.Finalize"

	err := l.withPeriod(ctx, periodID, func(ctx context.Context, q storage.Queries, p *storage.Period) error {
		if err := transition(p, storage.PeriodFinalized); err != nil {
			return err
		}
		return q.FinalizePeriod(ctx, p.ID, l.now())
	})
	if err != nil {
		return nil, l.fail(op, err)
	}

	return l.Get(ctx, periodID)
}

// Delete removes an open period that no later period was carried from.
func (l *Ledger) Delete(ctx context.Context, periodID int64) error {
	const op = "service.ledger.Delete"

	err := l.withPeriod(ctx, periodID, func(ctx context.Context, q storage.Queries, p *storage.Period) error {
		if err := ensureOpen(p); err != nil {
			return err
		}

		later, err := q.HasLaterPeriod(ctx, p)
		if err != nil {
			return err
		}
		if later {
			return errs.E(errs.PreconditionFailed, "period %d has been superseded by a later period and cannot be deleted", p.Sequence)
		}

		if !l.subcontractor {
			linked, err := q.IsPeriodReferenced(ctx, p.ID)
			if err != nil {
				return err
			}
			if linked {
				return errs.E(errs.PreconditionFailed, "period %d is referenced by subcontractor periods and cannot be deleted", p.Sequence)
			}
		}

		return q.DeletePeriod(ctx, p.ID)
	})
	if err != nil {
		return l.fail(op, err)
	}

	return nil
}

// withPeriod runs fn in a transaction under the owner lock, on a fresh read
// of the period taken after the lock.
func (l *Ledger) withPeriod(ctx context.Context, periodID int64, fn func(ctx context.Context, q storage.Queries, p *storage.Period) error) error {
	p, err := l.load(ctx, periodID)
	if err != nil {
		return err
	}

	return l.store.WithinTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.LockProject(ctx, p.Owner.ProjectID); err != nil {
			return notFound(err, "project %d not found", p.Owner.ProjectID)
		}
		current, err := q.GetPeriod(ctx, periodID)
		if err != nil {
			return notFound(err, "period %d not found", periodID)
		}
		return fn(ctx, q, current)
	})
}

// load reads a period and hides periods that belong to the other ledger.
func (l *Ledger) load(ctx context.Context, periodID int64) (*storage.Period, error) {
	p, err := l.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, notFound(err, "period %d not found", periodID)
	}
	if p.Owner.IsSubcontractor() != l.subcontractor {
		return nil, errs.E(errs.NotFound, "%s period %d not found", l.name, periodID)
	}
	return p, nil
}

func (l *Ledger) checkOwner(owner storage.Owner) error {
	if owner.ProjectID <= 0 {
		return errs.E(errs.InvalidInput, "invalid project id %d", owner.ProjectID)
	}
	if l.subcontractor && owner.SubcontractorID <= 0 {
		return errs.E(errs.InvalidInput, "invalid subcontractor id %d", owner.SubcontractorID)
	}
	if !l.subcontractor && owner.IsSubcontractor() {
		return errs.E(errs.InvalidInput, "project ledger called with subcontractor %d", owner.SubcontractorID)
	}
	return nil
}

// fail classifies err: business errors pass through, a lost sequence race
// becomes PreconditionFailed, everything else is Internal.
func (l *Ledger) fail(op string, err error) error {
	var e *errs.Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, storage.ErrDuplicate):
		return errs.Wrap(errs.PreconditionFailed, err, "concurrent period creation, retry")
	case errors.Is(err, storage.ErrNotFound):
		return errs.Wrap(errs.NotFound, err, "record not found")
	default:
		return errs.Wrap(errs.Internal, fmt.Errorf("%s: %w", op, err), l.name+" ledger")
	}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.Wrap(errs.NotFound, err, fmt.Sprintf(format, args...))
	}
	return err
}
