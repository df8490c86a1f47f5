//go:build integration

package sale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dropspace/internal/ledger"
	supplystore "dropspace/internal/sale/store/supply"
	"dropspace/pkg/num"
	"dropspace/pkg/platform/sentinel"
	"dropspace/pkg/platform/tx"
	"dropspace/pkg/testutil/containers"
)

func TestPostgresLedger(t *testing.T) {
	ctx := t.Context()
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() { pg.Close(ctx) })

	store := ledger.NewPostgresLedger(pg.DB)
	require.NoError(t, store.Migrate(ctx))

	t.Run("mint and resolve owner", func(t *testing.T) {
		require.NoError(t, store.Mint(ctx, "5Buyer", num.FromUint64(1)))

		owner, err := store.OwnerOf(ctx, num.FromUint64(1))
		require.NoError(t, err)
		require.Equal(t, "5Buyer", string(owner))

		total, err := store.TotalIssued(ctx)
		require.NoError(t, err)
		require.Equal(t, "1", total.Dec())
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		err := store.Mint(ctx, "5Other", num.FromUint64(1))
		require.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("retract removes the item", func(t *testing.T) {
		require.NoError(t, store.Mint(ctx, "5Buyer", num.FromUint64(2)))
		require.NoError(t, store.Retract(ctx, num.FromUint64(2)))

		_, err := store.OwnerOf(ctx, num.FromUint64(2))
		require.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := store.OwnerOf(ctx, num.FromUint64(404))
		require.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("context transaction scopes writes", func(t *testing.T) {
		sqlTx, err := pg.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		txCtx := tx.WithTx(ctx, sqlTx)

		require.NoError(t, store.Mint(txCtx, "5Buyer", num.FromUint64(77)))

		owner, err := store.OwnerOf(txCtx, num.FromUint64(77))
		require.NoError(t, err)
		require.Equal(t, "5Buyer", string(owner))

		require.NoError(t, sqlTx.Rollback())

		_, err = store.OwnerOf(ctx, num.FromUint64(77))
		require.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}

func TestPostgresSupply(t *testing.T) {
	ctx := t.Context()
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() { pg.Close(ctx) })

	store := supplystore.NewPostgresStore(pg.DB)
	require.NoError(t, store.Migrate(ctx))

	cur, err := store.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "0", cur.Dec())

	after, err := store.Advance(ctx, num.FromUint64(5))
	require.NoError(t, err)
	require.Equal(t, "5", after.Dec())

	// A second store over the same database sees the persisted counter.
	again := supplystore.NewPostgresStore(pg.DB)
	cur, err = again.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "5", cur.Dec())

	require.NoError(t, store.Retreat(ctx, num.FromUint64(2)))
	cur, err = store.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "3", cur.Dec())

	// Retreat clamps at zero rather than going negative.
	require.NoError(t, store.Retreat(ctx, num.FromUint64(100)))
	cur, err = store.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "0", cur.Dec())
}
