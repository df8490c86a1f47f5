package supply

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"dropspace/pkg/num"
	"dropspace/pkg/platform/tx"
)

// PostgresStore persists the issued count as a single NUMERIC(78,0) row.
// Saturating arithmetic happens in Go; the column is wide enough that the
// saturated maximum still fits.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the context transaction when one is running, the pool otherwise.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Migrate creates the counter table and seeds the single row. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sale_supply (
			singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			issued    NUMERIC(78,0) NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate supply: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sale_supply (singleton, issued) VALUES (TRUE, 0)
		ON CONFLICT (singleton) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("seed supply: %w", err)
	}
	return nil
}

func (s *PostgresStore) Current(ctx context.Context) (*uint256.Int, error) {
	var issued string
	err := s.q(ctx).QueryRowContext(ctx, `SELECT issued::text FROM sale_supply`).Scan(&issued)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return num.Zero(), nil
		}
		return nil, fmt.Errorf("read supply: %w", err)
	}
	return num.Parse(issued)
}

func (s *PostgresStore) Advance(ctx context.Context, by *uint256.Int) (*uint256.Int, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	next := num.SatAdd(current, by)
	if err := s.write(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *PostgresStore) Retreat(ctx context.Context, by *uint256.Int) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, num.Sub(current, by))
}

func (s *PostgresStore) write(ctx context.Context, issued *uint256.Int) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE sale_supply SET issued = $1::numeric WHERE singleton`, issued.Dec())
	if err != nil {
		return fmt.Errorf("write supply: %w", err)
	}
	return nil
}
