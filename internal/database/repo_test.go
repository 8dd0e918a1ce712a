package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupPostgres(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := Open(DriverPostgres, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoad_MissingKey(t *testing.T) {
	r := New(setupSQLite(t), logrus.New())

	_, err := r.Load(context.Background(), "portfolio")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoad_ReplacesWholeBlob(t *testing.T) {
	r := New(setupSQLite(t), logrus.New())
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "priceAlerts", []byte(`[{"id":"a"}]`)))
	require.NoError(t, r.Save(ctx, "priceAlerts", []byte(`[]`)))

	got, err := r.Load(ctx, "priceAlerts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = r.Load(ctx, "portfolio")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, New(db, logrus.New()).Save(context.Background(), "portfolio", []byte(`[]`)))
	db.Close()

	db, err = Open(DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	got, err := New(db, logrus.New()).Load(context.Background(), "portfolio")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestLatestPrices(t *testing.T) {
	r := New(setupSQLite(t), logrus.New())
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpsertPrice(ctx, "bitcoin", decimal.NewFromInt(60000), base))
	require.NoError(t, r.UpsertPrice(ctx, "bitcoin", decimal.NewFromInt(61000), base.Add(time.Hour)))
	require.NoError(t, r.UpsertPrice(ctx, "ethereum", decimal.RequireFromString("3100.5"), base))

	prices, err := r.GetLatestPrices(ctx, []string{"bitcoin", "ethereum", "dogecoin"})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.True(t, prices["bitcoin"].Equal(decimal.NewFromInt(61000)), "got %s", prices["bitcoin"])
	assert.True(t, prices["ethereum"].Equal(decimal.RequireFromString("3100.5")))
	_, ok := prices["dogecoin"]
	assert.False(t, ok)
}

func TestPriceHistory_Since(t *testing.T) {
	r := New(setupSQLite(t), logrus.New())
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.UpsertPrice(ctx, "solana", decimal.NewFromInt(int64(100+i)), base.AddDate(0, 0, i)))
	}

	points, err := r.GetPriceHistory(ctx, "solana", base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].PriceUSD.Equal(decimal.NewFromInt(102)))
	assert.True(t, points[2].PriceUSD.Equal(decimal.NewFromInt(104)))
}

func TestUpsertPrice_ReplacesSameTimestamp(t *testing.T) {
	r := New(setupSQLite(t), logrus.New())
	ctx := context.Background()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpsertPrice(ctx, "bitcoin", decimal.NewFromInt(61000), ts))
	require.NoError(t, r.UpsertPrice(ctx, "bitcoin", decimal.NewFromInt(62000), ts))
	require.NoError(t, r.UpsertPrice(ctx, "ethereum", decimal.NewFromInt(3400), ts))

	points, err := r.GetPriceHistory(ctx, "bitcoin", ts.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].PriceUSD.Equal(decimal.NewFromInt(62000)))
}

func TestSaveLoad_Postgres(t *testing.T) {
	r := New(setupPostgres(t), logrus.New())
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "test-collection", []byte(`[1,2,3]`)))
	got, err := r.Load(ctx, "test-collection")
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(got))
}
