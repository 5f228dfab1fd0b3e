package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"chantier-backend/internal/storage"
)

const lineColumns = `l.id, l.period_id, l.line_key, l.origin, l.order_line_id, l.since_sequence, l.position, l.article, l.description,
	l.type_tag, l.unit, l.unit_price, l.ordered_quantity,
	l.previous_quantity, l.current_quantity, l.cumulative_quantity,
	l.previous_amount, l.current_amount, l.cumulative_amount`

func (q *queries) InsertLine(ctx context.Context, periodID int64, line *storage.Line) (int64, error) {
	const op = "storage.sqlstore.InsertLine"

	res, err := q.q.ExecContext(ctx, `INSERT INTO progress_lines
		(period_id, line_key, origin, order_line_id, since_sequence, position, article, description, type_tag, unit,
		 unit_price, ordered_quantity,
		 previous_quantity, current_quantity, cumulative_quantity,
		 previous_amount, current_amount, cumulative_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		periodID, line.LineKey, string(line.Origin), nullInt64(line.OrderLineID), line.Since, line.Position,
		line.Article, line.Description, line.TypeTag, line.Unit,
		line.UnitPrice, line.OrderedQty,
		line.Quantity.Previous, line.Quantity.Current, line.Quantity.Cumulative,
		line.Amount.Previous, line.Amount.Current, line.Amount.Cumulative)
	if err != nil {
		return 0, fmt.Errorf("%s: line %q: %w", op, line.LineKey, mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	line.ID = id
	line.PeriodID = periodID

	return id, nil
}

// UpdateLineProgress writes the current and cumulative figures of one line.
// Previous values and the line identity never change after insert.
func (q *queries) UpdateLineProgress(ctx context.Context, line storage.Line) error {
	const op = "storage.sqlstore.UpdateLineProgress"

	res, err := q.q.ExecContext(ctx, `UPDATE progress_lines
		SET current_quantity = ?, cumulative_quantity = ?, current_amount = ?, cumulative_amount = ?
		WHERE id = ? AND period_id = ?`,
		line.Quantity.Current, line.Quantity.Cumulative, line.Amount.Current, line.Amount.Cumulative,
		line.ID, line.PeriodID)
	if err != nil {
		return fmt.Errorf("%s: line %d: %w", op, line.ID, mapError(err))
	}

	return expectAffected(op, res)
}

func (q *queries) DeleteLine(ctx context.Context, lineID int64) error {
	const op = "storage.sqlstore.DeleteLine"

	res, err := q.q.ExecContext(ctx, `DELETE FROM progress_lines WHERE id = ?`, lineID)
	if err != nil {
		return fmt.Errorf("%s: line %d: %w", op, lineID, mapError(err))
	}

	return expectAffected(op, res)
}

func scanLines(rows *sql.Rows) ([]storage.Line, error) {
	lines := []storage.Line{}
	for rows.Next() {
		var (
			l         storage.Line
			orderLine sql.NullInt64
		)
		err := rows.Scan(&l.ID, &l.PeriodID, &l.LineKey, &l.Origin, &orderLine, &l.Since, &l.Position, &l.Article, &l.Description,
			&l.TypeTag, &l.Unit, &l.UnitPrice, &l.OrderedQty,
			&l.Quantity.Previous, &l.Quantity.Current, &l.Quantity.Cumulative,
			&l.Amount.Previous, &l.Amount.Current, &l.Amount.Cumulative)
		if err != nil {
			return nil, fmt.Errorf("scan progress line: %w", err)
		}
		if orderLine.Valid {
			id := orderLine.Int64
			l.OrderLineID = &id
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan progress lines: %w", err)
	}

	return lines, nil
}
