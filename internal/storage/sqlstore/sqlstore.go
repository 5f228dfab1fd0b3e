package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"chantier-backend/internal/config"
	"chantier-backend/internal/storage"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	MemoryPath = ":memory:"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)

	_ storage.Store = (*Storage)(nil)
)

type Storage struct {
	queries
	db *sql.DB
	// txHook wraps the transaction handle; tests use it to inject failures.
	txHook func(DBTX) DBTX
}

// queries carries every SQL statement; it runs against the pool or a tx.
type queries struct {
	q DBTX
	d *dialect
}

func New(cfg config.Storage) (*Storage, error) {
	const op = "storage.sqlstore.New"

	switch cfg.Driver {
	case DriverMySQL:
		if cfg.DBUser == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("%s: db_user and db_name are required for mysql", op)
		}
		dsn := mysql.NewConfig()
		dsn.User = cfg.DBUser
		dsn.Passwd = cfg.DBPassword
		dsn.Net = "tcp"
		dsn.Addr = cfg.DBHost + ":" + strconv.Itoa(cfg.DBPort)
		dsn.DBName = cfg.DBName
		dsn.ParseTime = true
		// UPDATE без изменений тоже считается найденной строкой
		dsn.ClientFoundRows = true
		return Open(DriverMySQL, dsn.FormatDSN())
	case DriverSQLite:
		if cfg.Path != MemoryPath {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return nil, fmt.Errorf("%s: create db directory: %w", op, err)
			}
		}
		return Open(DriverSQLite, cfg.Path)
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}

func Open(driver, dsn string) (*Storage, error) {
	const op = "storage.sqlstore.Open"

	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%s: unknown driver %q", op, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if driver == DriverSQLite {
		// один коннект: pragma живут на соединении, а :memory: без него теряется
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %s: %w", op, pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{queries: queries{q: db, d: d}, db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Driver() string {
	return s.d.name
}

// WithTxHook returns a copy of the storage whose transactions are wrapped by hook.
func (s *Storage) WithTxHook(hook func(DBTX) DBTX) *Storage {
	cp := *s
	cp.txHook = hook
	return &cp
}

// WithinTx runs fn in one transaction. Any error or panic rolls back.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, q storage.Queries) error) error {
	const op = "storage.sqlstore.WithinTx"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var handle DBTX = tx
	if s.txHook != nil {
		handle = s.txHook(tx)
	}

	if err := fn(ctx, &queries{q: handle, d: s.d}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%s: rollback failed: %v (original error: %w)", op, rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, mapError(err))
	}

	return nil
}
