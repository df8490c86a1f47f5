// Package tx carries a *sql.Tx through context so the ledger and supply
// stores can join one transaction without changing their signatures. Stores
// check From on every query and fall back to their pool when no transaction
// is present.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx returns a context whose store operations run inside the given
// transaction. A nil transaction leaves the context untouched.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From reports the transaction carried by ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
