// Package sqlstore keeps notification records and metric observations in
// the token_info and token_metrics tables of a database/sql database.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MustafAks/DexScreener/internal/data"
)

var (
	_ data.RecordStore  = (*Store)(nil)
	_ data.MetricsStore = (*Store)(nil)
)

type Store struct {
	db      *sqlx.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database behind driver and dsn and creates the
// tables when missing. driver is one of sqlite3, postgres or mysql.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	if d.prepareDSN != nil {
		if dsn, err = d.prepareDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid %s dsn: %w", driver, err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, dialect: d, now: time.Now}

	if err := s.initTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// WithClock replaces the clock the averages lookback is measured from.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initTables(ctx context.Context) error {
	for _, query := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
