package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chantier-backend/internal/storage"
)

const orderLineColumns = `l.id, l.order_id, l.position, l.article, l.description, l.type_tag, l.unit, l.unit_price, l.quantity`

func (q *queries) ValidatedOrderLines(ctx context.Context, owner storage.Owner) ([]storage.OrderLine, error) {
	const op = "storage.sqlstore.ValidatedOrderLines"

	stmt := `SELECT ` + orderLineColumns + `
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.project_id = ? AND o.subcontractor_id = ? AND o.status IN (?, ?)
		ORDER BY o.id, l.position, l.id`

	rows, err := q.q.QueryContext(ctx, stmt, owner.ProjectID, owner.SubcontractorID,
		string(storage.OrderValidated), string(storage.OrderLocked))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	lines, err := scanOrderLines(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lines, nil
}

func (q *queries) ListOrders(ctx context.Context, projectID int64) ([]*storage.Order, error) {
	const op = "storage.sqlstore.ListOrders"

	rows, err := q.q.QueryContext(ctx, `
		SELECT id, project_id, subcontractor_id, number, status, total, created_at, updated_at
		FROM orders WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	orders := []*storage.Order{}
	byID := make(map[int64]*storage.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows.Close()

	lineRows, err := q.q.QueryContext(ctx, `SELECT `+orderLineColumns+`
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.project_id = ?
		ORDER BY l.order_id, l.position, l.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: lines: %w", op, mapError(err))
	}
	defer lineRows.Close()

	lines, err := scanOrderLines(lineRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, l := range lines {
		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}

	return orders, nil
}

func (q *queries) GetOrder(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.sqlstore.GetOrder"

	row := q.q.QueryRowContext(ctx, `
		SELECT id, project_id, subcontractor_id, number, status, total, created_at, updated_at
		FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("%s: order %d: %w", op, id, mapError(err))
	}

	rows, err := q.q.QueryContext(ctx, `SELECT `+orderLineColumns+`
		FROM order_lines l WHERE l.order_id = ? ORDER BY l.position, l.id`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: lines: %w", op, mapError(err))
	}
	defer rows.Close()

	if o.Lines, err = scanOrderLines(rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}

// InsertOrder writes the header and its lines. Run it inside WithinTx.
func (q *queries) InsertOrder(ctx context.Context, order *storage.Order) (int64, error) {
	const op = "storage.sqlstore.InsertOrder"

	now := time.Now().UTC().Truncate(time.Second)
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO orders (project_id, subcontractor_id, number, status, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ProjectID, order.SubcontractorID, order.Number, string(order.Status), order.Total, now.Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	order.ID = id
	order.CreatedAt, order.UpdatedAt = now, now

	if err := q.insertOrderLines(ctx, order); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateOrder rewrites the header and replaces all lines.
func (q *queries) UpdateOrder(ctx context.Context, order *storage.Order) error {
	const op = "storage.sqlstore.UpdateOrder"

	now := time.Now().UTC().Truncate(time.Second)
	res, err := q.q.ExecContext(ctx, `
		UPDATE orders SET number = ?, status = ?, total = ?, updated_at = ? WHERE id = ?`,
		order.Number, string(order.Status), order.Total, now.Unix(), order.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := expectAffected(op, res); err != nil {
		return err
	}
	order.UpdatedAt = now

	// Удаляем старые строки
	if _, err := q.q.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, order.ID); err != nil {
		return fmt.Errorf("%s: delete lines: %w", op, mapError(err))
	}

	if err := q.insertOrderLines(ctx, order); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (q *queries) DeleteOrder(ctx context.Context, id int64) error {
	const op = "storage.sqlstore.DeleteOrder"

	if _, err := q.q.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("%s: delete lines: %w", op, mapError(err))
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectAffected(op, res)
}

func (q *queries) insertOrderLines(ctx context.Context, order *storage.Order) error {
	stmt := `INSERT INTO order_lines (order_id, position, article, description, type_tag, unit, unit_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range order.Lines {
		l := &order.Lines[i]
		l.OrderID = order.ID
		if l.Position == 0 {
			l.Position = i + 1
		}

		res, err := q.q.ExecContext(ctx, stmt, order.ID, l.Position, l.Article, l.Description, l.TypeTag, l.Unit, l.UnitPrice, l.Quantity)
		if err != nil {
			return fmt.Errorf("insert order line %d: %w", l.Position, mapError(err))
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert order line %d: last insert id: %w", l.Position, err)
		}
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*storage.Order, error) {
	var (
		o                storage.Order
		created, updated int64
	)
	if err := row.Scan(&o.ID, &o.ProjectID, &o.SubcontractorID, &o.Number, &o.Status, &o.Total, &created, &updated); err != nil {
		return nil, err
	}
	o.CreatedAt = time.Unix(created, 0).UTC()
	o.UpdatedAt = time.Unix(updated, 0).UTC()
	o.Lines = []storage.OrderLine{}

	return &o, nil
}

func scanOrderLines(rows *sql.Rows) ([]storage.OrderLine, error) {
	lines := []storage.OrderLine{}
	for rows.Next() {
		var l storage.OrderLine
		err := rows.Scan(&l.ID, &l.OrderID, &l.Position, &l.Article, &l.Description, &l.TypeTag, &l.Unit, &l.UnitPrice, &l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan order lines: %w", err)
	}

	return lines, nil
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
