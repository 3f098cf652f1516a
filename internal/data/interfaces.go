package data

import (
	"context"
	"errors"
	"time"

	"github.com/MustafAks/DexScreener/internal/models"
)

// ErrDetailNotFound is returned by FetchDetail when the source has no pair
// for the token.
var ErrDetailNotFound = errors.New("token detail not found")

// TokenSource 负责从行情源获取代币数据
type TokenSource interface {
	// FetchLatest returns the latest promoted tokens, in source order.
	FetchLatest(ctx context.Context) ([]models.TokenSummary, error)

	// FetchDetail returns the market snapshot of one token.
	FetchDetail(ctx context.Context, tokenAddress string) (*models.TokenSnapshot, error)
}

// RecordStore 保存每个代币的通知状态
type RecordStore interface {
	// GetRecord returns storage.ErrNotFound when the token was never notified.
	GetRecord(ctx context.Context, tokenAddress string) (*models.NotificationRecord, error)

	// InsertRecord returns storage.ErrDuplicateKey when a record already exists.
	InsertRecord(ctx context.Context, record *models.NotificationRecord) error

	UpdateRecord(ctx context.Context, record *models.NotificationRecord) error
}

// MetricsStore 保存历史观测并计算滚动均值
type MetricsStore interface {
	// GetAverages returns zeros when no observation falls inside the window.
	GetAverages(ctx context.Context, window AveragesWindow) (models.RunningAverages, error)

	// RecordMetric appends one observation of the snapshot.
	RecordMetric(ctx context.Context, tokenAddress string, snapshot *models.TokenSnapshot, observedAt time.Time) error
}

// AveragesWindow bounds the observations that feed the running averages.
// The zero value averages every stored observation.
type AveragesWindow struct {
	Limit  int           // most recent observations, 0 = no limit
	MaxAge time.Duration // lookback from now, 0 = no limit
}

// Unbounded reports whether the window covers all observations.
func (w AveragesWindow) Unbounded() bool {
	return w.Limit <= 0 && w.MaxAge <= 0
}
