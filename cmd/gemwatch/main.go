package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MustafAks/DexScreener/internal/ai/openai"
	"github.com/MustafAks/DexScreener/internal/configs"
	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/data/collector"
	"github.com/MustafAks/DexScreener/internal/data/collector/dexscreener"
	"github.com/MustafAks/DexScreener/internal/data/storage/memory"
	"github.com/MustafAks/DexScreener/internal/data/storage/redisstore"
	"github.com/MustafAks/DexScreener/internal/data/storage/sqlstore"
	"github.com/MustafAks/DexScreener/internal/monitor"
	"github.com/MustafAks/DexScreener/internal/notify"
	"github.com/MustafAks/DexScreener/internal/notify/kafka"
	"github.com/MustafAks/DexScreener/internal/notify/telegram"
	"github.com/MustafAks/DexScreener/internal/observability"
	"github.com/MustafAks/DexScreener/internal/utils/request"
)

var (
	flagconf string
	flagonce bool

	level = new(slog.LevelVar)

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "config.json", "config path, eg: -conf config.yaml")
	flag.BoolVar(&flagonce, "once", false, "run a single poll cycle and exit")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Error("gemwatch stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载配置
	config, err := configs.Load(flagconf)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level.Set(config.SlogLevel())

	log.Info("loaded config", "config", config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("gemwatch")
	if config.MetricsAddr != "" {
		server := metrics.NewServer(config.MetricsAddr)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", "addr", config.MetricsAddr)
	}

	// 初始化各个组件
	httpClient := request.New(request.Options{
		ConnectTimeout: config.ConnectTimeout(),
		RequestTimeout: config.RequestTimeout(),
		Proxy:          config.Source.Proxy,
		UserAgent:      "gemwatch/1.0",
	})

	source := dexscreener.NewDexScreenerDataSource(config.Source.APIBaseURL, httpClient)
	tokenCollector := collector.NewCollector(source, config.RetryPolicy(), log,
		collector.WithMissCache(config.Source.DetailMissSize, config.DetailMissTTL()),
		collector.WithRetryHook(func(int, error, time.Duration) { metrics.FetchRetries.Inc() }),
	)

	log.Debug("init collector")

	records, history, closeStores, err := openStores(ctx, config)
	if err != nil {
		return err
	}
	defer closeStores()

	log.Debug("init storage", "driver", config.Storage.Driver, "records_backend", config.Storage.RecordsBackend)

	dispatcher, closeTargets, err := newDispatcher(config, httpClient)
	if err != nil {
		return err
	}
	defer closeTargets()
	dispatcher.OnFailure(func(target string) {
		metrics.NotifierErrors.WithLabelValues(target).Inc()
	})
	if dispatcher.Len() == 0 {
		log.Warn("no notification target configured, alerts are only logged")
	}

	log.Debug("init dispatcher", "targets", dispatcher.Len())

	opts := []monitor.Option{monitor.WithMetrics(metrics)}
	if config.AIConfig.APIKey != "" {
		analyzer := openai.NewOpenAIAnalyzer(config.AIConfig.APIKey, config.AIConfig.BaseURL, config.AIConfig.Model, config.AITimeout())
		opts = append(opts, monitor.WithAnalyzer(analyzer))
		log.Debug("init analyzer", "model", config.AIConfig.Model)
	}

	m := monitor.NewMonitor(monitor.Config{
		Policy:       config.Policy(),
		Weights:      config.Weights(),
		Window:       config.Window(),
		PollInterval: config.PollIntervalDuration(),
	}, tokenCollector, records, history, dispatcher, log, opts...)

	if flagonce {
		report, err := m.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("cycle %s skipped: %w", report.CycleID, err)
		}
		return nil
	}

	// 运行系统
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}

// openStores returns the record store and the metrics store selected by the
// storage config, plus a func releasing them.
func openStores(ctx context.Context, config *configs.Config) (data.RecordStore, data.MetricsStore, func(), error) {
	var (
		records data.RecordStore
		history data.MetricsStore
		closers []func() error
	)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Error("failed to close store", "err", err)
			}
		}
	}

	switch config.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		records, history = store, store
	default:
		store, err := sqlstore.Open(ctx, config.Storage.Driver, config.Storage.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open %s store: %w", config.Storage.Driver, err)
		}
		closers = append(closers, store.Close)
		records, history = store, store
	}

	if config.Storage.RecordsBackend == "redis" {
		redisConfig := config.Storage.Redis
		client, err := redisstore.Dial(ctx, redisConfig.Addr, redisConfig.Password, redisConfig.DB)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, client.Close)
		records = redisstore.NewStore(client, redisConfig.KeyPrefix)
	}

	return records, history, closeAll, nil
}

// newDispatcher builds one target per configured notifier.
func newDispatcher(config *configs.Config, httpClient *resty.Client) (*notify.Dispatcher, func(), error) {
	var (
		targets []notify.Target
		closers []func() error
	)

	if config.Telegram.BotToken != "" {
		targets = append(targets, notify.Target{
			Name:     "telegram",
			Notifier: telegram.NewTelegramNotifier(config.Telegram.APIBaseURL, config.Telegram.BotToken, httpClient),
			Channel:  config.Telegram.ChatID,
		})
	}

	if len(config.Kafka.Brokers) > 0 {
		producer, err := kafka.NewKafkaNotifier(config.Kafka.Brokers)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, producer.Close)
		targets = append(targets, notify.Target{
			Name:     "kafka",
			Notifier: producer,
			Channel:  config.Kafka.Topic,
		})
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error("failed to close notifier", "err", err)
			}
		}
	}

	return notify.NewDispatcher(log, targets...), closeAll, nil
}
