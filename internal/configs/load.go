package configs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MustafAks/DexScreener/internal/gem"
)

const (
	DefaultAPIBaseURL        = "https://api.dexscreener.com"
	DefaultTelegramBaseURL   = "https://api.telegram.org"
	DefaultPollInterval      = 10 * time.Second
	DefaultCooldown          = 24 * time.Hour
	DefaultThreshold         = 5
	DefaultMarketCapMultiple = 5.0
	DefaultMaxAttempts       = 5
	DefaultRetryInitialDelay = 5 * time.Second
	DefaultRetryIncrement    = 5 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultRequestTimeout    = 15 * time.Second
	DefaultAITimeout         = 20 * time.Second
	DefaultDriver            = "sqlite3"
	DefaultDSN               = "gemwatch.db"
	DefaultRecordsBackend    = "sql"
	DefaultRedisKeyPrefix    = "gemwatch:token:"
	DefaultDetailMissSize    = 4096
)

var drivers = map[string]bool{"sqlite3": true, "postgres": true, "mysql": true, "memory": true}

// Load reads the config file at path (JSON, or YAML for .yaml/.yml), then
// overlays .env, .env.local and GEMWATCH_* environment variables, fills
// defaults and validates the result. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(path, raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// missing .env files are fine
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func decode(path string, raw []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, config)
	default:
		return json.Unmarshal(raw, config)
	}
}

func (c *Config) applyEnv() {
	setString(&c.LogLevel, "GEMWATCH_LOG_LEVEL")
	setString(&c.MetricsAddr, "GEMWATCH_METRICS_ADDR")
	setString(&c.Source.APIBaseURL, "GEMWATCH_API_BASE_URL")
	setString(&c.Storage.Driver, "GEMWATCH_STORAGE_DRIVER")
	setString(&c.Storage.DSN, "GEMWATCH_STORAGE_DSN")
	setString(&c.Storage.Redis.Addr, "GEMWATCH_REDIS_ADDR")
	setString(&c.Storage.Redis.Password, "GEMWATCH_REDIS_PASSWORD")
	setString(&c.Telegram.BotToken, "GEMWATCH_TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "GEMWATCH_TELEGRAM_CHAT_ID")
	setString(&c.Kafka.Topic, "GEMWATCH_KAFKA_TOPIC")
	setString(&c.AIConfig.APIKey, "GEMWATCH_AI_API_KEY")

	if v := os.Getenv("GEMWATCH_KAFKA_BROKERS"); v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		c.Kafka.Brokers = brokers
	}

	if v := os.Getenv("GEMWATCH_SCORE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scoring.Threshold = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PollInterval == "" {
		c.PollInterval = DefaultPollInterval.String()
	}
	if c.Source.APIBaseURL == "" {
		c.Source.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Source.DetailMissSize <= 0 {
		c.Source.DetailMissSize = DefaultDetailMissSize
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Scoring.Threshold == 0 {
		c.Scoring.Threshold = DefaultThreshold
	}
	if c.Scoring.Cooldown == "" {
		c.Scoring.Cooldown = DefaultCooldown.String()
	}
	if c.Scoring.MarketCapMultiplier == 0 {
		c.Scoring.MarketCapMultiplier = DefaultMarketCapMultiple
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Storage.DSN == "" && c.Storage.Driver == DefaultDriver {
		c.Storage.DSN = DefaultDSN
	}
	if c.Storage.RecordsBackend == "" {
		c.Storage.RecordsBackend = DefaultRecordsBackend
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = DefaultTelegramBaseURL
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value string
	}{
		{"poll_interval", c.PollInterval},
		{"scoring.cooldown", c.Scoring.Cooldown},
		{"retry.initial_delay", c.Retry.InitialDelay},
		{"retry.increment", c.Retry.Increment},
		{"source.connect_timeout", c.Source.ConnectTimeout},
		{"source.request_timeout", c.Source.RequestTimeout},
		{"source.detail_miss_ttl", c.Source.DetailMissTTL},
		{"storage.averages_max_age", c.Storage.AveragesMaxAge},
		{"ai_config.timeout", c.AIConfig.Timeout},
	}
	for _, field := range durations {
		if field.value == "" {
			continue
		}
		d, err := time.ParseDuration(field.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.value, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s %q: must not be negative", field.name, field.value)
		}
	}

	if c.PollIntervalDuration() <= 0 {
		return fmt.Errorf("invalid poll_interval: must be positive")
	}
	if c.Scoring.Threshold <= 0 {
		return fmt.Errorf("invalid scoring.threshold %d: must be positive", c.Scoring.Threshold)
	}
	if c.Scoring.MarketCapMultiplier <= 0 {
		return fmt.Errorf("invalid scoring.market_cap_multiplier %v: must be positive", c.Scoring.MarketCapMultiplier)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("invalid retry.max_attempts %d: must be at least 1", c.Retry.MaxAttempts)
	}
	if c.Storage.AveragesWindow < 0 {
		return fmt.Errorf("invalid storage.averages_window %d: must not be negative", c.Storage.AveragesWindow)
	}

	known := make(map[gem.Predicate]bool, len(gem.Predicates))
	for _, p := range gem.Predicates {
		known[p] = true
	}
	for name := range c.Scoring.Weights {
		if !known[gem.Predicate(name)] {
			return fmt.Errorf("unknown scoring weight %q", name)
		}
	}

	if !drivers[c.Storage.Driver] {
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
	}
	switch c.Storage.RecordsBackend {
	case "sql":
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis records backend")
		}
	default:
		return fmt.Errorf("unsupported storage.records_backend %q", c.Storage.RecordsBackend)
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogValue keeps secrets out of the logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_base_url", c.Source.APIBaseURL),
		slog.String("poll_interval", c.PollInterval),
		slog.Int("threshold", c.Scoring.Threshold),
		slog.String("cooldown", c.Scoring.Cooldown),
		slog.Float64("market_cap_multiplier", c.Scoring.MarketCapMultiplier),
		slog.Int("max_attempts", c.Retry.MaxAttempts),
		slog.String("storage_driver", c.Storage.Driver),
		slog.String("records_backend", c.Storage.RecordsBackend),
		slog.Int("averages_window", c.Storage.AveragesWindow),
		slog.Bool("telegram", c.Telegram.BotToken != ""),
		slog.Any("kafka_brokers", c.Kafka.Brokers),
		slog.Bool("ai_note", c.AIConfig.APIKey != ""),
		slog.String("metrics_addr", c.MetricsAddr),
	)
}
