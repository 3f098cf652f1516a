package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/models"
)

var (
	_ data.RecordStore  = (*Store)(nil)
	_ data.MetricsStore = (*Store)(nil)
)

type metric struct {
	tokenAddress string
	marketCap    int64
	liquidityUSD float64
	volume24h    float64
	observedAt   time.Time
}

// Store is an in-memory implementation of data.RecordStore and data.MetricsStore.
type Store struct {
	mu      sync.RWMutex
	records map[string]*models.NotificationRecord // keyed by token address
	metrics []metric                              // append order
	now     func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.NotificationRecord),
		now:     time.Now,
	}
}

// WithClock replaces the clock the averages lookback is measured from.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetRecord returns a copy of the record. Returns ErrNotFound if not exists.
func (s *Store) GetRecord(_ context.Context, tokenAddress string) (*models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// InsertRecord adds a new record. Returns ErrDuplicateKey if the token already has one.
func (s *Store) InsertRecord(_ context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.TokenAddress]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *record
	s.records[record.TokenAddress] = &recordCopy
	return nil
}

// UpdateRecord overwrites the notification fields of an existing record.
// InitialMarketCap is left as stored.
func (s *Store) UpdateRecord(_ context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.records[record.TokenAddress]
	if !exists {
		return storage.ErrNotFound
	}

	existing.LastNotifiedAt = record.LastNotifiedAt
	existing.LastNotifiedMarketCap = record.LastNotifiedMarketCap
	return nil
}

// RecordMetric appends one observation.
func (s *Store) RecordMetric(_ context.Context, tokenAddress string, snapshot *models.TokenSnapshot, observedAt time.Time) error {
	if snapshot == nil || tokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = append(s.metrics, metric{
		tokenAddress: tokenAddress,
		marketCap:    snapshot.MarketCap,
		liquidityUSD: snapshot.LiquidityUSD,
		volume24h:    snapshot.Volume24h,
		observedAt:   observedAt,
	})
	return nil
}

// GetAverages averages the observations inside window, newest first.
func (s *Store) GetAverages(_ context.Context, window data.AveragesWindow) (models.RunningAverages, error) {
	if window.Limit < 0 || window.MaxAge < 0 {
		return models.RunningAverages{}, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	if window.MaxAge > 0 {
		cutoff = s.now().Add(-window.MaxAge)
	}

	var (
		n                      int
		sumCap, sumLiq, sumVol float64
	)
	for i := len(s.metrics) - 1; i >= 0; i-- {
		if window.Limit > 0 && n == window.Limit {
			break
		}
		m := s.metrics[i]
		if !cutoff.IsZero() && m.observedAt.Before(cutoff) {
			continue
		}
		n++
		sumCap += float64(m.marketCap)
		sumLiq += m.liquidityUSD
		sumVol += m.volume24h
	}

	if n == 0 {
		return models.RunningAverages{}, nil
	}
	return models.RunningAverages{
		AvgMarketCap: sumCap / float64(n),
		AvgLiquidity: sumLiq / float64(n),
		AvgVolume:    sumVol / float64(n),
	}, nil
}

// Len returns the number of recorded observations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.metrics)
}
