package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openSQLite(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "gemwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.WithClock(func() time.Time { return testNow })
}

func TestSQLite_Records(t *testing.T) {
	testRecords(t, openSQLite(t))
}

func TestSQLite_Averages(t *testing.T) {
	testAverages(t, openSQLite(t))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gemwatch.db")

	store, err := Open(ctx, "sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, store.InsertRecord(ctx, &models.NotificationRecord{
		TokenAddress:          "tokenA",
		LastNotifiedAt:        testNow,
		InitialMarketCap:      20000,
		LastNotifiedMarketCap: 20000,
	}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, "sqlite3", path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetRecord(ctx, "tokenA")
	require.NoError(t, err)
	assert.Equal(t, testNow, got.LastNotifiedAt)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestOpen_InvalidMySQLDSN(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "no-database-name")
	assert.Error(t, err)
}

func TestDialect_MySQLFoundRows(t *testing.T) {
	dsn, err := dialects["mysql"].prepareDSN("gem:secret@tcp(localhost:3306)/gemwatch")
	require.NoError(t, err)
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "/gemwatch")
}

func TestAveragesQuery(t *testing.T) {
	store := &Store{
		db:      sqlx.NewDb(&sql.DB{}, "postgres"),
		dialect: dialects["postgres"],
		now:     func() time.Time { return testNow },
	}

	query, args := store.averagesQuery(data.AveragesWindow{})
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)

	query, args = store.averagesQuery(data.AveragesWindow{Limit: 100, MaxAge: time.Hour})
	assert.Contains(t, query, "created_at >= $1")
	assert.Contains(t, query, "ORDER BY id DESC LIMIT 100")
	assert.Equal(t, []interface{}{testNow.Add(-time.Hour).UnixMilli()}, args)
}

func testRecords(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.GetRecord(ctx, "tokenA")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	record := &models.NotificationRecord{
		TokenAddress:          "tokenA",
		LastNotifiedAt:        testNow,
		InitialMarketCap:      20000,
		LastNotifiedMarketCap: 20000,
	}
	require.NoError(t, store.InsertRecord(ctx, record))
	assert.ErrorIs(t, store.InsertRecord(ctx, record), storage.ErrDuplicateKey)

	got, err := store.GetRecord(ctx, "tokenA")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	later := testNow.Add(25 * time.Hour)
	require.NoError(t, store.UpdateRecord(ctx, &models.NotificationRecord{
		TokenAddress:          "tokenA",
		LastNotifiedAt:        later,
		InitialMarketCap:      1,
		LastNotifiedMarketCap: 150000,
	}))

	got, err = store.GetRecord(ctx, "tokenA")
	require.NoError(t, err)
	assert.Equal(t, later, got.LastNotifiedAt)
	assert.Equal(t, int64(20000), got.InitialMarketCap)
	assert.Equal(t, int64(150000), got.LastNotifiedMarketCap)

	err = store.UpdateRecord(ctx, &models.NotificationRecord{TokenAddress: "tokenB", LastNotifiedAt: later})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.InsertRecord(ctx, &models.NotificationRecord{}), storage.ErrInvalidInput)
}

func testAverages(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	avg, err := store.GetAverages(ctx, data.AveragesWindow{})
	require.NoError(t, err)
	assert.Equal(t, models.RunningAverages{}, avg)

	observations := []struct {
		marketCap int64
		liquidity float64
		volume    float64
		age       time.Duration
	}{
		{10000, 1000, 100, 48 * time.Hour},
		{20000, 2000, 200, 2 * time.Hour},
		{30000, 3000, 300, time.Hour},
	}
	for _, o := range observations {
		snapshot := &models.TokenSnapshot{MarketCap: o.marketCap, LiquidityUSD: o.liquidity, Volume24h: o.volume}
		require.NoError(t, store.RecordMetric(ctx, "token", snapshot, testNow.Add(-o.age)))
	}

	tests := []struct {
		name   string
		window data.AveragesWindow
		want   models.RunningAverages
	}{
		{"unbounded", data.AveragesWindow{}, models.RunningAverages{AvgMarketCap: 20000, AvgLiquidity: 2000, AvgVolume: 200}},
		{"last two", data.AveragesWindow{Limit: 2}, models.RunningAverages{AvgMarketCap: 25000, AvgLiquidity: 2500, AvgVolume: 250}},
		{"last day", data.AveragesWindow{MaxAge: 24 * time.Hour}, models.RunningAverages{AvgMarketCap: 25000, AvgLiquidity: 2500, AvgVolume: 250}},
		{"limit and age", data.AveragesWindow{Limit: 1, MaxAge: 24 * time.Hour}, models.RunningAverages{AvgMarketCap: 30000, AvgLiquidity: 3000, AvgVolume: 300}},
		{"nothing recent", data.AveragesWindow{MaxAge: time.Minute}, models.RunningAverages{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetAverages(ctx, tt.window)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.AvgMarketCap, got.AvgMarketCap, 1e-6)
			assert.InDelta(t, tt.want.AvgLiquidity, got.AvgLiquidity, 1e-6)
			assert.InDelta(t, tt.want.AvgVolume, got.AvgVolume, 1e-6)
		})
	}

	assert.ErrorIs(t, store.RecordMetric(ctx, "", &models.TokenSnapshot{}, testNow), storage.ErrInvalidInput)
}
