package guard

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	txcontext "sirenops/pkg/platform/tx"
)

// TxManager provides the atomic unit of work wrapping decide, mutate,
// audit, and enqueue. Implementations commit only when fn returns nil.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLTxManager runs fn inside a database transaction stored in context so
// the ledger, outbox, and policy stores join it.
type SQLTxManager struct {
	db *sql.DB
}

func NewSQLTxManager(db *sql.DB) *SQLTxManager {
	return &SQLTxManager{db: db}
}

func (m *SQLTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.With(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InMemoryTxManager serializes guarded attempts behind one mutex. The
// coarse lock stands in for row-level locking: two concurrent destructive
// attempts on the same resource cannot both observe ALLOW, and a hold
// creation racing a delete is strictly ordered against it.
//
// It cannot roll back partial writes, so callers' mutate functions must
// fail before touching state (the in-memory stores are only used in tests
// and dev mode, where this holds).
type InMemoryTxManager struct {
	mu sync.Mutex
}

func NewInMemoryTxManager() *InMemoryTxManager {
	return &InMemoryTxManager{}
}

func (m *InMemoryTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
