package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/courtside/internal/roles/store"
)

type txStore struct {
	tx *sql.Tx
	access
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx:     tx,
		access: access{q: tx},
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op; the connection is held by the transaction.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Roles() store.Roles             { return &rolesRepo{q: t.tx} }
func (t *txStore) Permissions() store.Permissions { return &permissionsRepo{q: t.tx} }
func (t *txStore) Assignments() store.Assignments { return &assignmentsRepo{q: t.tx} }
func (t *txStore) Grants() store.Grants           { return &grantsRepo{q: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
