package sqlstore

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// dialect holds what differs between the supported database/sql drivers.
type dialect struct {
	idColumn    string
	floatType   string
	isDuplicate func(err error) bool
	prepareDSN  func(dsn string) (string, error)
}

const (
	pgErrUniqueViolation  = "23505"
	mysqlErrDuplicateKey  = 1062
	tokenAddressColumnLen = 128
)

var dialects = map[string]dialect{
	"sqlite3": {
		idColumn:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		floatType: "REAL",
		isDuplicate: func(err error) bool {
			var sqliteErr sqlite3.Error
			return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
		},
	},
	"postgres": {
		idColumn:    "BIGSERIAL PRIMARY KEY",
		floatType:   "DOUBLE PRECISION",
		isDuplicate: func(err error) bool {
			var pqErr *pq.Error
			return errors.As(err, &pqErr) && pqErr.Code == pgErrUniqueViolation
		},
	},
	"mysql": {
		idColumn:  "BIGINT AUTO_INCREMENT PRIMARY KEY",
		floatType: "DOUBLE",
		isDuplicate: func(err error) bool {
			var mysqlErr *mysql.MySQLError
			return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateKey
		},
		// UPDATE must report matched rows, not changed rows
		prepareDSN: func(dsn string) (string, error) {
			cfg, err := mysql.ParseDSN(dsn)
			if err != nil {
				return "", err
			}
			cfg.ClientFoundRows = true
			return cfg.FormatDSN(), nil
		},
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
	return d, nil
}

func (d dialect) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS token_info (
			token_address VARCHAR(%d) PRIMARY KEY,
			last_notified_time BIGINT NOT NULL,
			initial_market_cap BIGINT NOT NULL,
			last_notified_market_cap BIGINT NOT NULL
		)`, tokenAddressColumnLen),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS token_metrics (
			id %s,
			token_address VARCHAR(%d) NOT NULL,
			market_cap BIGINT NOT NULL,
			liquidity_usd %s NOT NULL,
			volume_24h %s NOT NULL,
			created_at BIGINT NOT NULL
		)`, d.idColumn, tokenAddressColumnLen, d.floatType, d.floatType),
	}
}
