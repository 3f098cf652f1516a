package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/models"
)

// RecordMetric implements data.MetricsStore.
func (s *Store) RecordMetric(ctx context.Context, tokenAddress string, snapshot *models.TokenSnapshot, observedAt time.Time) error {
	if snapshot == nil || tokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := s.db.Rebind(`
		INSERT INTO token_metrics (
			token_address, market_cap, liquidity_usd, volume_24h, created_at
		) VALUES (?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		tokenAddress,
		snapshot.MarketCap,
		snapshot.LiquidityUSD,
		snapshot.Volume24h,
		observedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert token metrics: %w", err)
	}

	return nil
}

// GetAverages implements data.MetricsStore. The window picks the newest
// rows first; an empty window yields zeros.
func (s *Store) GetAverages(ctx context.Context, window data.AveragesWindow) (models.RunningAverages, error) {
	if window.Limit < 0 || window.MaxAge < 0 {
		return models.RunningAverages{}, storage.ErrInvalidInput
	}

	query, args := s.averagesQuery(window)

	var avg models.RunningAverages
	err := s.db.QueryRowxContext(ctx, query, args...).Scan(
		&avg.AvgMarketCap,
		&avg.AvgLiquidity,
		&avg.AvgVolume,
	)
	if err != nil {
		return models.RunningAverages{}, fmt.Errorf("failed to get averages: %w", err)
	}

	return avg, nil
}

func (s *Store) averagesQuery(window data.AveragesWindow) (string, []interface{}) {
	const averages = `
		SELECT COALESCE(AVG(market_cap), 0), COALESCE(AVG(liquidity_usd), 0), COALESCE(AVG(volume_24h), 0)
		FROM `

	if window.Unbounded() {
		return averages + "token_metrics", nil
	}

	var (
		inner strings.Builder
		args  []interface{}
	)
	inner.WriteString("SELECT market_cap, liquidity_usd, volume_24h FROM token_metrics")
	if window.MaxAge > 0 {
		inner.WriteString(" WHERE created_at >= ?")
		args = append(args, s.now().Add(-window.MaxAge).UnixMilli())
	}
	inner.WriteString(" ORDER BY id DESC")
	if window.Limit > 0 {
		// LIMIT is written as an integer literal
		inner.WriteString(" LIMIT " + strconv.Itoa(window.Limit))
	}

	return s.db.Rebind(averages + "(" + inner.String() + ") AS recent"), args
}
