package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/models"
)

type tokenInfoRow struct {
	LastNotifiedMs        int64 `db:"last_notified_time"`
	InitialMarketCap      int64 `db:"initial_market_cap"`
	LastNotifiedMarketCap int64 `db:"last_notified_market_cap"`
}

// GetRecord implements data.RecordStore. Returns storage.ErrNotFound if the
// token was never notified.
func (s *Store) GetRecord(ctx context.Context, tokenAddress string) (*models.NotificationRecord, error) {
	query := s.db.Rebind(`
		SELECT last_notified_time, initial_market_cap, last_notified_market_cap
		FROM token_info
		WHERE token_address = ?
	`)

	var row tokenInfoRow
	err := s.db.GetContext(ctx, &row, query, tokenAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token info: %w", err)
	}

	return &models.NotificationRecord{
		TokenAddress:          tokenAddress,
		LastNotifiedAt:        time.UnixMilli(row.LastNotifiedMs).UTC(),
		InitialMarketCap:      row.InitialMarketCap,
		LastNotifiedMarketCap: row.LastNotifiedMarketCap,
	}, nil
}

// InsertRecord implements data.RecordStore.
func (s *Store) InsertRecord(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := s.db.Rebind(`
		INSERT INTO token_info (
			token_address, last_notified_time, initial_market_cap, last_notified_market_cap
		) VALUES (?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		record.TokenAddress,
		record.LastNotifiedAt.UnixMilli(),
		record.InitialMarketCap,
		record.LastNotifiedMarketCap,
	)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert token info: %w", err)
	}

	return nil
}

// UpdateRecord implements data.RecordStore. initial_market_cap is never
// rewritten.
func (s *Store) UpdateRecord(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := s.db.Rebind(`
		UPDATE token_info
		SET last_notified_time = ?, last_notified_market_cap = ?
		WHERE token_address = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		record.LastNotifiedAt.UnixMilli(),
		record.LastNotifiedMarketCap,
		record.TokenAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to update token info: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update token info: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}
