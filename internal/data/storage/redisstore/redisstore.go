// Package redisstore keeps notification records in redis hashes, one hash
// per token.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/models"
)

var _ data.RecordStore = (*Store)(nil)

const (
	fieldLastNotifiedTime      = "last_notified_time"
	fieldInitialMarketCap      = "initial_market_cap"
	fieldLastNotifiedMarketCap = "last_notified_market_cap"
)

// insertScript creates the hash only when the key is absent.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'last_notified_time', ARGV[1], 'initial_market_cap', ARGV[2], 'last_notified_market_cap', ARGV[3])
return 1
`)

// updateScript rewrites the notification fields only when the key exists.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'last_notified_time', ARGV[1], 'last_notified_market_cap', ARGV[2])
return 1
`)

type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewStore(client redis.UniversalClient, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

// Dial connects to a single redis server and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func (s *Store) key(tokenAddress string) string {
	return s.keyPrefix + tokenAddress
}

// GetRecord implements data.RecordStore.
func (s *Store) GetRecord(ctx context.Context, tokenAddress string) (*models.NotificationRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(tokenAddress)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token record: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	lastNotifiedMs, err1 := strconv.ParseInt(fields[fieldLastNotifiedTime], 10, 64)
	initialCap, err2 := strconv.ParseInt(fields[fieldInitialMarketCap], 10, 64)
	lastCap, err3 := strconv.ParseInt(fields[fieldLastNotifiedMarketCap], 10, 64)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("failed to decode token record %s: %w", tokenAddress, err)
	}

	return &models.NotificationRecord{
		TokenAddress:          tokenAddress,
		LastNotifiedAt:        time.UnixMilli(lastNotifiedMs).UTC(),
		InitialMarketCap:      initialCap,
		LastNotifiedMarketCap: lastCap,
	}, nil
}

// InsertRecord implements data.RecordStore.
func (s *Store) InsertRecord(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	created, err := insertScript.Run(ctx, s.client, []string{s.key(record.TokenAddress)},
		record.LastNotifiedAt.UnixMilli(),
		record.InitialMarketCap,
		record.LastNotifiedMarketCap,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to insert token record: %w", err)
	}
	if created == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// UpdateRecord implements data.RecordStore. initial_market_cap is never
// rewritten.
func (s *Store) UpdateRecord(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil || record.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	updated, err := updateScript.Run(ctx, s.client, []string{s.key(record.TokenAddress)},
		record.LastNotifiedAt.UnixMilli(),
		record.LastNotifiedMarketCap,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update token record: %w", err)
	}
	if updated == 0 {
		return storage.ErrNotFound
	}
	return nil
}
