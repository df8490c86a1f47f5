package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/lib/pq"

	"dropspace/pkg/domain"
	"dropspace/pkg/platform/sentinel"
	"dropspace/pkg/platform/tx"
)

// PostgresLedger persists item ownership in PostgreSQL. Item ids are stored as
// NUMERIC(78,0) so the full 256-bit range survives round trips.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the context transaction when one is running, the pool otherwise.
func (l *PostgresLedger) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return l.db
}

// Migrate creates the items table. Idempotent.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_items (
			item_id    NUMERIC(78,0) PRIMARY KEY,
			owner_addr TEXT NOT NULL,
			minted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Mint(ctx context.Context, owner domain.Address, id *uint256.Int) error {
	_, err := l.q(ctx).ExecContext(ctx,
		`INSERT INTO ledger_items (item_id, owner_addr) VALUES ($1, $2)`,
		id.Dec(), owner.String(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("mint item %s: %w", id.Dec(), err)
	}
	return nil
}

func (l *PostgresLedger) Retract(ctx context.Context, id *uint256.Int) error {
	res, err := l.q(ctx).ExecContext(ctx, `DELETE FROM ledger_items WHERE item_id = $1`, id.Dec())
	if err != nil {
		return fmt.Errorf("retract item %s: %w", id.Dec(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retract item %s: %w", id.Dec(), err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (l *PostgresLedger) OwnerOf(ctx context.Context, id *uint256.Int) (domain.Address, error) {
	var owner string
	err := l.q(ctx).QueryRowContext(ctx,
		`SELECT owner_addr FROM ledger_items WHERE item_id = $1`, id.Dec(),
	).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("owner of item %s: %w", id.Dec(), err)
	}
	return domain.Address(owner), nil
}

func (l *PostgresLedger) TotalIssued(ctx context.Context) (*uint256.Int, error) {
	var count uint64
	if err := l.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_items`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count issued items: %w", err)
	}
	return uint256.NewInt(count), nil
}
