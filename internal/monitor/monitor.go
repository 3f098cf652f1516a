// Package monitor runs the poll cycle: fetch the latest tokens, score and
// decide each one, deliver alerts and persist state, then sleep.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MustafAks/DexScreener/internal/ai"
	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/storage"
	"github.com/MustafAks/DexScreener/internal/gem"
	"github.com/MustafAks/DexScreener/internal/models"
	"github.com/MustafAks/DexScreener/internal/notify"
	"github.com/MustafAks/DexScreener/internal/observability"
)

// BatchSource is the retrying view of the token source.
type BatchSource interface {
	FetchBatch(ctx context.Context) ([]models.TokenSummary, error)
	Detail(ctx context.Context, tokenAddress string) (*models.TokenSnapshot, error)
}

// Dispatcher delivers one formatted alert to every configured target.
type Dispatcher interface {
	Dispatch(ctx context.Context, message string) error
}

// Config holds the immutable settings of a Monitor.
type Config struct {
	Policy       gem.Policy
	Weights      gem.Weights
	Window       data.AveragesWindow
	PollInterval time.Duration
}

// CycleReport summarises one cycle.
type CycleReport struct {
	CycleID    string
	Fetched    int
	Processed  int
	Duplicates int
	Skipped    int
	Gems       int
	Notified   int
}

// Monitor 负责轮询、评分与告警
type Monitor struct {
	config     Config
	scorer     *gem.Scorer
	source     BatchSource
	records    data.RecordStore
	history    data.MetricsStore
	dispatcher Dispatcher
	analyzer   ai.Analyzer
	metrics    *observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures optional collaborators of a Monitor.
type Option func(*Monitor)

// WithAnalyzer appends an AI risk note to every alert.
func WithAnalyzer(analyzer ai.Analyzer) Option {
	return func(m *Monitor) { m.analyzer = analyzer }
}

// WithMetrics records cycle and token metrics on metrics instead of a
// private throwaway registry.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func NewMonitor(
	config Config,
	source BatchSource,
	records data.RecordStore,
	history data.MetricsStore,
	dispatcher Dispatcher,
	logger *slog.Logger,
	opts ...Option,
) *Monitor {
	m := &Monitor{
		config:     config,
		scorer:     gem.NewScorer(config.Weights),
		source:     source,
		records:    records,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = observability.NewMetrics("")
	}
	return m
}

// Run 运行轮询主循环
// It returns once ctx is cancelled. A cycle always runs to completion
// before the poll interval starts.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "poll_interval", m.config.PollInterval, "threshold", m.config.Policy.Threshold)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := m.RunCycle(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		timer.Reset(m.config.PollInterval)
	}
}

// RunCycle processes one batch. It returns an error only when the batch
// could not be fetched or ctx was cancelled; token level failures are
// logged and counted.
func (m *Monitor) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString()}
	log := m.logger.With("cycle_id", report.CycleID)
	started := m.now()

	batch, err := m.source.FetchBatch(ctx)
	if err != nil {
		m.metrics.ObserveCycle(observability.CycleSkipped, started, m.now())
		if ctx.Err() == nil {
			log.Error("skipping cycle, failed to fetch latest tokens", "error", err)
		}
		return report, err
	}
	report.Fetched = len(batch)

	averages, err := m.history.GetAverages(ctx, m.config.Window)
	if err != nil {
		log.Warn("failed to get running averages, comparing against none", "error", err)
		m.metrics.StoreErrors.WithLabelValues("get_averages").Inc()
		averages = models.RunningAverages{}
	}
	log.Debug("running averages", "avg_market_cap", averages.AvgMarketCap,
		"avg_liquidity", averages.AvgLiquidity, "avg_volume", averages.AvgVolume)

	seen := make(map[string]struct{}, len(batch))
	for _, summary := range batch {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		address := summary.TokenAddress
		if address == "" {
			report.Skipped++
			m.metrics.TokensSkipped.WithLabelValues("no_address").Inc()
			continue
		}
		if _, dup := seen[address]; dup {
			report.Duplicates++
			m.metrics.DuplicatesInBatch.Inc()
			continue
		}
		// first seen wins, even when its detail lookup fails
		seen[address] = struct{}{}

		snapshot, err := m.source.Detail(ctx, address)
		if err != nil {
			report.Skipped++
			if errors.Is(err, data.ErrDetailNotFound) {
				log.Info("token detail not found", "token", address)
				m.metrics.TokensSkipped.WithLabelValues("detail_not_found").Inc()
			} else {
				log.Warn("failed to fetch token detail", "token", address, "error", err)
				m.metrics.TokensSkipped.WithLabelValues("detail_error").Inc()
			}
			continue
		}

		gemFound, notified := m.processToken(ctx, log, address, snapshot, averages)
		report.Processed++
		if gemFound {
			report.Gems++
		}
		if notified {
			report.Notified++
		}
	}

	finished := m.now()
	m.metrics.ObserveCycle(observability.CycleOK, started, finished)
	log.Info("cycle finished",
		"fetched", report.Fetched,
		"processed", report.Processed,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"gems", report.Gems,
		"notified", report.Notified,
		"took", finished.Sub(started),
	)
	return report, nil
}

func (m *Monitor) processToken(ctx context.Context, log *slog.Logger, address string, snapshot *models.TokenSnapshot, averages models.RunningAverages) (gemFound, notified bool) {
	now := m.now()
	eval := m.scorer.Evaluate(snapshot, averages, now)

	m.metrics.TokensProcessed.Inc()
	m.metrics.ScoreHistogram.Observe(float64(eval.Score))
	log.Debug("token scored", "token", address, "symbol", snapshot.Symbol, "score", eval.Score, "matched", eval.Matched)

	if m.config.Policy.IsGem(eval.Score) {
		gemFound = true
		m.metrics.GemsDetected.Inc()
		notified = m.handleGem(ctx, log, address, snapshot, eval, now)
	}

	if err := m.history.RecordMetric(ctx, address, snapshot, now); err != nil {
		log.Warn("failed to record token metrics", "token", address, "error", err)
		m.metrics.StoreErrors.WithLabelValues("record_metric").Inc()
	}

	return gemFound, notified
}

func (m *Monitor) handleGem(ctx context.Context, log *slog.Logger, address string, snapshot *models.TokenSnapshot, eval gem.Evaluation, now time.Time) bool {
	prior, err := m.records.GetRecord(ctx, address)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to get notification record, treating as unseen", "token", address, "error", err)
			m.metrics.StoreErrors.WithLabelValues("get_record").Inc()
		}
		prior = nil
	}

	decision := m.config.Policy.Decide(address, snapshot, eval.Score, prior, now)
	m.metrics.Decisions.WithLabelValues(string(decision.Reason)).Inc()

	if !decision.Notify {
		log.Debug("gem alert suppressed", "token", address, "reason", decision.Reason)
		return false
	}

	alert := notify.Alert{
		Snapshot:  snapshot,
		Score:     eval.Score,
		Threshold: m.config.Policy.Threshold,
		Matched:   eval.Matched,
		Reason:    decision.Reason,
	}
	if m.analyzer != nil {
		note, err := m.analyzer.AssessToken(ctx, snapshot, eval.Score)
		if err != nil {
			log.Warn("failed to get AI note", "token", address, "error", err)
		} else {
			alert.Note = note.String()
		}
	}

	log.Info("gem token detected", "token", address, "symbol", snapshot.Symbol,
		"score", eval.Score, "market_cap", snapshot.MarketCap, "reason", decision.Reason)

	// delivery failures never roll back the record
	if err := m.dispatcher.Dispatch(ctx, notify.FormatAlert(alert)); err != nil {
		log.Error("alert delivery incomplete", "token", address, "error", err)
	}

	m.persist(ctx, log, prior, decision.Record)
	return true
}

func (m *Monitor) persist(ctx context.Context, log *slog.Logger, prior, record *models.NotificationRecord) {
	if prior != nil {
		if err := m.records.UpdateRecord(ctx, record); err != nil {
			log.Error("failed to update notification record", "token", record.TokenAddress, "error", err)
			m.metrics.StoreErrors.WithLabelValues("update_record").Inc()
		}
		return
	}

	err := m.records.InsertRecord(ctx, record)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// the earlier read failed while a record exists
		err = m.records.UpdateRecord(ctx, record)
	}
	if err != nil {
		log.Error("failed to insert notification record", "token", record.TokenAddress, "error", err)
		m.metrics.StoreErrors.WithLabelValues("insert_record").Inc()
	}
}
