package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chantier-backend/internal/storage"
)

const periodColumns = `id, project_id, subcontractor_id, sequence, author, comment, state, project_period_id, created_at, finalized_at`

func (q *queries) LastPeriod(ctx context.Context, owner storage.Owner) (*storage.Period, error) {
	const op = "storage.sqlstore.LastPeriod"

	row := q.q.QueryRowContext(ctx, `SELECT `+periodColumns+`
		FROM progress_periods
		WHERE project_id = ? AND subcontractor_id = ?
		ORDER BY sequence DESC LIMIT 1`, owner.ProjectID, owner.SubcontractorID)
	p, err := scanPeriod(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := q.loadLines(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (q *queries) GetPeriod(ctx context.Context, id int64) (*storage.Period, error) {
	const op = "storage.sqlstore.GetPeriod"

	row := q.q.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM progress_periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if err != nil {
		return nil, fmt.Errorf("%s: period %d: %w", op, id, mapError(err))
	}

	if err := q.loadLines(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// ListPeriods returns the owner's periods, newest first, with their lines.
func (q *queries) ListPeriods(ctx context.Context, owner storage.Owner) ([]*storage.Period, error) {
	const op = "storage.sqlstore.ListPeriods"

	rows, err := q.q.QueryContext(ctx, `SELECT `+periodColumns+`
		FROM progress_periods
		WHERE project_id = ? AND subcontractor_id = ?
		ORDER BY sequence DESC`, owner.ProjectID, owner.SubcontractorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	periods := []*storage.Period{}
	byID := make(map[int64]*storage.Period)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		periods = append(periods, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows.Close()

	if len(periods) == 0 {
		return periods, nil
	}

	lineRows, err := q.q.QueryContext(ctx, `SELECT `+lineColumns+`
		FROM progress_lines l
		JOIN progress_periods p ON p.id = l.period_id
		WHERE p.project_id = ? AND p.subcontractor_id = ?
		ORDER BY l.period_id, l.position, l.id`, owner.ProjectID, owner.SubcontractorID)
	if err != nil {
		return nil, fmt.Errorf("%s: lines: %w", op, mapError(err))
	}
	defer lineRows.Close()

	lines, err := scanLines(lineRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, l := range lines {
		if p, ok := byID[l.PeriodID]; ok {
			p.AddLine(l)
		}
	}

	return periods, nil
}

func (q *queries) HasLaterPeriod(ctx context.Context, period *storage.Period) (bool, error) {
	const op = "storage.sqlstore.HasLaterPeriod"

	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM progress_periods
		WHERE project_id = ? AND subcontractor_id = ? AND sequence > ?`,
		period.Owner.ProjectID, period.Owner.SubcontractorID, period.Sequence).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return n > 0, nil
}

func (q *queries) IsPeriodReferenced(ctx context.Context, periodID int64) (bool, error) {
	const op = "storage.sqlstore.IsPeriodReferenced"

	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM progress_periods WHERE project_period_id = ?`, periodID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return n > 0, nil
}

// InsertPeriod writes the period header and every line. The unique key on
// (project_id, subcontractor_id, sequence) rejects a concurrent duplicate
// with storage.ErrDuplicate.
func (q *queries) InsertPeriod(ctx context.Context, period *storage.Period) (int64, error) {
	const op = "storage.sqlstore.InsertPeriod"

	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	res, err := q.q.ExecContext(ctx, `INSERT INTO progress_periods
		(project_id, subcontractor_id, sequence, author, comment, state, project_period_id, created_at, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		period.Owner.ProjectID, period.Owner.SubcontractorID, period.Sequence, period.Author, period.Comment,
		string(period.State), nullInt64(period.ProjectPeriodID), period.CreatedAt.Unix(), nullTime(period.FinalizedAt))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	period.ID = id

	for _, lines := range [][]storage.Line{period.Lines, period.ChangeOrderLines} {
		for i := range lines {
			if _, err := q.InsertLine(ctx, id, &lines[i]); err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	return id, nil
}

func (q *queries) UpdatePeriodComment(ctx context.Context, periodID int64, comment string) error {
	const op = "storage.sqlstore.UpdatePeriodComment"

	res, err := q.q.ExecContext(ctx, `UPDATE progress_periods SET comment = ? WHERE id = ?`, comment, periodID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectAffected(op, res)
}

func (q *queries) FinalizePeriod(ctx context.Context, periodID int64, at time.Time) error {
	const op = "storage.sqlstore.FinalizePeriod"

	res, err := q.q.ExecContext(ctx, `UPDATE progress_periods SET state = ?, finalized_at = ? WHERE id = ? AND state = ?`,
		string(storage.PeriodFinalized), at.Unix(), periodID, string(storage.PeriodOpen))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectAffected(op, res)
}

func (q *queries) DeletePeriod(ctx context.Context, periodID int64) error {
	const op = "storage.sqlstore.DeletePeriod"

	if _, err := q.q.ExecContext(ctx, `DELETE FROM progress_lines WHERE period_id = ?`, periodID); err != nil {
		return fmt.Errorf("%s: delete lines: %w", op, mapError(err))
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM progress_periods WHERE id = ?`, periodID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectAffected(op, res)
}

func (q *queries) loadLines(ctx context.Context, p *storage.Period) error {
	rows, err := q.q.QueryContext(ctx, `SELECT `+lineColumns+`
		FROM progress_lines l WHERE l.period_id = ? ORDER BY l.position, l.id`, p.ID)
	if err != nil {
		return fmt.Errorf("load lines of period %d: %w", p.ID, mapError(err))
	}
	defer rows.Close()

	lines, err := scanLines(rows)
	if err != nil {
		return err
	}
	for _, l := range lines {
		p.AddLine(l)
	}

	return nil
}

func scanPeriod(row scanner) (*storage.Period, error) {
	var (
		p             storage.Period
		projectPeriod sql.NullInt64
		created       int64
		finalized     sql.NullInt64
	)

	err := row.Scan(&p.ID, &p.Owner.ProjectID, &p.Owner.SubcontractorID, &p.Sequence, &p.Author, &p.Comment,
		&p.State, &projectPeriod, &created, &finalized)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = time.Unix(created, 0).UTC()
	if projectPeriod.Valid {
		p.ProjectPeriodID = &projectPeriod.Int64
	}
	if finalized.Valid {
		t := time.Unix(finalized.Int64, 0).UTC()
		p.FinalizedAt = &t
	}
	p.Lines = []storage.Line{}
	p.ChangeOrderLines = []storage.Line{}

	return &p, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
