// Package tx carries an open SQL transaction through context so stores can
// join the ambient unit of work without plumbing *sql.Tx through every
// signature. The guard coordinator opens the transaction; the ledger and
// outbox stores pick it up here, which is what makes "decide, mutate, audit,
// enqueue" a single atomic commit.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// With stores a SQL transaction in context for downstream store usage.
func With(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
