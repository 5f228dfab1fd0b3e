package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"chantier-backend/internal/storage"
)

// CreateProject is used by fixtures and the surrounding application; the
// ledger itself never creates projects.
func (q *queries) CreateProject(ctx context.Context, name string) (int64, error) {
	const op = "storage.sqlstore.CreateProject"

	res, err := q.q.ExecContext(ctx, `INSERT INTO projects (name, budget) VALUES (?, ?)`, name, decimal.Zero)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return res.LastInsertId()
}

func (q *queries) CreateSubcontractor(ctx context.Context, name string) (int64, error) {
	const op = "storage.sqlstore.CreateSubcontractor"

	res, err := q.q.ExecContext(ctx, `INSERT INTO subcontractors (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return res.LastInsertId()
}

func (q *queries) LockProject(ctx context.Context, projectID int64) error {
	const op = "storage.sqlstore.LockProject"

	var id int64
	if err := q.q.QueryRowContext(ctx, q.d.lockProject, projectID).Scan(&id); err != nil {
		return fmt.Errorf("%s: project %d: %w", op, projectID, mapError(err))
	}

	return nil
}

func (q *queries) GetProject(ctx context.Context, id int64) (*storage.Project, error) {
	const op = "storage.sqlstore.GetProject"

	var p storage.Project
	err := q.q.QueryRowContext(ctx, `SELECT id, name, budget FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Budget)
	if err != nil {
		return nil, fmt.Errorf("%s: project %d: %w", op, id, mapError(err))
	}

	return &p, nil
}

func (q *queries) GetSubcontractor(ctx context.Context, id int64) (*storage.Subcontractor, error) {
	const op = "storage.sqlstore.GetSubcontractor"

	var s storage.Subcontractor
	err := q.q.QueryRowContext(ctx, `SELECT id, name FROM subcontractors WHERE id = ?`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: subcontractor %d: %w", op, id, mapError(err))
	}

	return &s, nil
}

func (q *queries) SetProjectBudget(ctx context.Context, projectID int64, budget decimal.Decimal) error {
	const op = "storage.sqlstore.SetProjectBudget"

	res, err := q.q.ExecContext(ctx, `UPDATE projects SET budget = ? WHERE id = ?`, budget, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectAffected(op, res)
}
