// Package testutil builds in-memory stores and fixtures for tests.
package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"chantier-backend/internal/storage/sqlstore"
)

// NewTestStore returns a migrated in-memory SQLite store closed with the test.
func NewTestStore(t *testing.T) *sqlstore.Storage {
	t.Helper()

	store, err := sqlstore.Open(sqlstore.DriverSQLite, sqlstore.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))

	return store
}

// FailOnNthExec makes the Nth ExecContext of a transaction return err.
// Calls are counted from 1; reads are not counted.
func FailOnNthExec(n int32, err error) func(sqlstore.DBTX) sqlstore.DBTX {
	return func(tx sqlstore.DBTX) sqlstore.DBTX {
		return &failOnNthExec{DBTX: tx, failOn: n, err: err}
	}
}

type failOnNthExec struct {
	sqlstore.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
