package store

import (
	"context"
	"testing"
	"time"

	"github.com/cgscacau/yieldlab/src/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.OpenAndMigrate(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStore_CRUD(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "assets", "asset_1", Fields{"ticker": "PETR4", "quantity": 10.0, "sector": "Energia"})
	require.NoError(t, err)
	assert.Equal(t, "asset_1", created.ID)
	assert.NotEmpty(t, created.CreateTime)

	updated, err := s.Update(ctx, "assets", "asset_1", Fields{"quantity": 12.0})
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Fields["quantity"])
	assert.Equal(t, "Energia", updated.Fields["sector"], "update must merge")

	_, err = s.Create(ctx, "assets", "asset_2", Fields{"ticker": "VALE3"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "portfolios", "portfolio_1", Fields{"name": "x"})
	require.NoError(t, err)

	docs, err := s.List(ctx, "assets", 100)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.List(ctx, "assets", 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.Delete(ctx, "assets", "asset_1"))
	_, err = s.Get(ctx, "assets", "asset_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "assets", "asset_1"), ErrNotFound)

	_, err = s.Update(ctx, "assets", "nope", Fields{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListOrdersByCreateTime(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC)

	s.now = func() time.Time { return base.Add(100 * time.Millisecond) }
	_, err := s.Create(ctx, "transactions", "tx_older", Fields{"ticker": "PETR4"})
	require.NoError(t, err)
	s.now = func() time.Time { return base.Add(120 * time.Millisecond) }
	_, err = s.Create(ctx, "transactions", "tx_newer", Fields{"ticker": "VALE3"})
	require.NoError(t, err)

	docs, err := s.List(ctx, "transactions", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "tx_older", docs[0].ID)
	assert.Equal(t, "2024-01-01T12:00:05.100000000Z", docs[0].CreateTime)
}
