package sqlstore

import (
	"context"
	"fmt"
)

type dialect struct {
	name string
	// lockProject must return the project id and hold it until commit.
	lockProject string
	schema      []string
}

var dialects = map[string]*dialect{
	DriverMySQL: {
		name:        DriverMySQL,
		lockProject: `SELECT id FROM projects WHERE id = ? FOR UPDATE`,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS projects (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				budget DECIMAL(18,4) NOT NULL DEFAULT 0
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS subcontractors (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS orders (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project_id BIGINT NOT NULL,
				subcontractor_id BIGINT NOT NULL DEFAULT 0,
				number VARCHAR(64) NOT NULL,
				status VARCHAR(16) NOT NULL,
				total DECIMAL(18,4) NOT NULL DEFAULT 0,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL,
				INDEX idx_orders_owner (project_id, subcontractor_id),
				FOREIGN KEY (project_id) REFERENCES projects(id)
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS order_lines (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				order_id BIGINT NOT NULL,
				position INT NOT NULL,
				article VARCHAR(64) NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				type_tag VARCHAR(32) NOT NULL DEFAULT '',
				unit VARCHAR(16) NOT NULL,
				unit_price DECIMAL(18,4) NOT NULL,
				quantity DECIMAL(18,4) NOT NULL,
				FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS progress_periods (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project_id BIGINT NOT NULL,
				subcontractor_id BIGINT NOT NULL DEFAULT 0,
				sequence INT NOT NULL,
				author VARCHAR(128) NOT NULL,
				comment TEXT NOT NULL,
				state VARCHAR(16) NOT NULL,
				project_period_id BIGINT NULL,
				created_at BIGINT NOT NULL,
				finalized_at BIGINT NULL,
				UNIQUE KEY uq_progress_owner_sequence (project_id, subcontractor_id, sequence),
				FOREIGN KEY (project_id) REFERENCES projects(id),
				FOREIGN KEY (project_period_id) REFERENCES progress_periods(id)
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS progress_lines (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				period_id BIGINT NOT NULL,
				line_key CHAR(36) NOT NULL,
				origin VARCHAR(16) NOT NULL,
				order_line_id BIGINT NULL,
				since_sequence INT NOT NULL,
				position INT NOT NULL,
				article VARCHAR(64) NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				type_tag VARCHAR(32) NOT NULL DEFAULT '',
				unit VARCHAR(16) NOT NULL,
				unit_price DECIMAL(18,4) NOT NULL,
				ordered_quantity DECIMAL(18,4) NOT NULL,
				previous_quantity DECIMAL(18,4) NOT NULL,
				current_quantity DECIMAL(18,4) NOT NULL,
				cumulative_quantity DECIMAL(18,4) NOT NULL,
				previous_amount DECIMAL(18,4) NOT NULL,
				current_amount DECIMAL(18,4) NOT NULL,
				cumulative_amount DECIMAL(18,4) NOT NULL,
				UNIQUE KEY uq_progress_line_key (period_id, line_key),
				FOREIGN KEY (period_id) REFERENCES progress_periods(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
		},
	},
	DriverSQLite: {
		name: DriverSQLite,
		// sqlite has no row locks; the single connection serializes writers
		lockProject: `SELECT id FROM projects WHERE id = ?`,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS projects (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				budget TEXT NOT NULL DEFAULT '0'
			)`,
			`CREATE TABLE IF NOT EXISTS subcontractors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS orders (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL REFERENCES projects(id),
				subcontractor_id INTEGER NOT NULL DEFAULT 0,
				number TEXT NOT NULL,
				status TEXT NOT NULL,
				total TEXT NOT NULL DEFAULT '0',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders (project_id, subcontractor_id)`,
			`CREATE TABLE IF NOT EXISTS order_lines (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				article TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				type_tag TEXT NOT NULL DEFAULT '',
				unit TEXT NOT NULL,
				unit_price TEXT NOT NULL,
				quantity TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS progress_periods (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL REFERENCES projects(id),
				subcontractor_id INTEGER NOT NULL DEFAULT 0,
				sequence INTEGER NOT NULL,
				author TEXT NOT NULL,
				comment TEXT NOT NULL,
				state TEXT NOT NULL CHECK (state IN ('OPEN', 'FINALIZED')),
				project_period_id INTEGER REFERENCES progress_periods(id),
				created_at INTEGER NOT NULL,
				finalized_at INTEGER,
				UNIQUE (project_id, subcontractor_id, sequence)
			)`,
			`CREATE TABLE IF NOT EXISTS progress_lines (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				period_id INTEGER NOT NULL REFERENCES progress_periods(id) ON DELETE CASCADE,
				line_key TEXT NOT NULL,
				origin TEXT NOT NULL CHECK (origin IN ('ORIGINAL', 'CHANGE_ORDER')),
				order_line_id INTEGER,
				since_sequence INTEGER NOT NULL,
				position INTEGER NOT NULL,
				article TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				type_tag TEXT NOT NULL DEFAULT '',
				unit TEXT NOT NULL,
				unit_price TEXT NOT NULL,
				ordered_quantity TEXT NOT NULL,
				previous_quantity TEXT NOT NULL,
				current_quantity TEXT NOT NULL,
				cumulative_quantity TEXT NOT NULL,
				previous_amount TEXT NOT NULL,
				current_amount TEXT NOT NULL,
				cumulative_amount TEXT NOT NULL,
				UNIQUE (period_id, line_key)
			)`,
		},
	},
}

// Migrate creates the tables this service owns. Statements are idempotent.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.sqlstore.Migrate"

	for i, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", op, i, err)
		}
	}

	return nil
}
