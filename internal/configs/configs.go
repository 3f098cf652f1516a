package configs

import (
	"time"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/gem"
	"github.com/MustafAks/DexScreener/internal/utils/retry"
)

type Config struct {
	// 基础配置
	LogLevel     string `json:"log_level" yaml:"log_level"`         // debug, info, warn, error
	MetricsAddr  string `json:"metrics_addr" yaml:"metrics_addr"`   // empty disables /metrics
	PollInterval string `json:"poll_interval" yaml:"poll_interval"` // 轮询间隔

	Source   SourceConfig   `json:"source" yaml:"source"`
	Retry    RetryConfig    `json:"retry" yaml:"retry"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Kafka    KafkaConfig    `json:"kafka" yaml:"kafka"`
	AIConfig AIConfig       `json:"ai_config" yaml:"ai_config"`
}

type SourceConfig struct {
	APIBaseURL     string `json:"api_base_url" yaml:"api_base_url"`
	ConnectTimeout string `json:"connect_timeout" yaml:"connect_timeout"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
	Proxy          string `json:"proxy" yaml:"proxy"`
	DetailMissTTL  string `json:"detail_miss_ttl" yaml:"detail_miss_ttl"` // 0 disables the miss cache
	DetailMissSize int    `json:"detail_miss_size" yaml:"detail_miss_size"`
}

type RetryConfig struct {
	MaxAttempts  int    `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay string `json:"initial_delay" yaml:"initial_delay"`
	Increment    string `json:"increment" yaml:"increment"`
}

type ScoringConfig struct {
	Threshold           int                `json:"threshold" yaml:"threshold"`
	Cooldown            string             `json:"cooldown" yaml:"cooldown"`
	MarketCapMultiplier float64            `json:"market_cap_multiplier" yaml:"market_cap_multiplier"`
	Weights             map[string]float64 `json:"weights" yaml:"weights"` // overrides by predicate name
}

type StorageConfig struct {
	Driver         string      `json:"driver" yaml:"driver"` // sqlite3, postgres, mysql, memory
	DSN            string      `json:"dsn" yaml:"dsn"`
	AveragesWindow int         `json:"averages_window" yaml:"averages_window"`   // most recent rows, 0 = all
	AveragesMaxAge string      `json:"averages_max_age" yaml:"averages_max_age"` // lookback, empty = unbounded
	RecordsBackend string      `json:"records_backend" yaml:"records_backend"`   // sql or redis
	Redis          RedisConfig `json:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

type TelegramConfig struct {
	BotToken   string `json:"bot_token" yaml:"bot_token"`
	ChatID     string `json:"chat_id" yaml:"chat_id"`
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type AIConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`   // AI服务API密钥, empty disables the note
	BaseURL string `json:"base_url" yaml:"base_url"` // any OpenAI compatible endpoint
	Model   string `json:"model" yaml:"model"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

// PollIntervalDuration returns the delay between two cycles.
func (c *Config) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, DefaultPollInterval)
}

// Policy returns the alert policy of the decision engine.
func (c *Config) Policy() gem.Policy {
	return gem.Policy{
		Threshold:           c.Scoring.Threshold,
		Cooldown:            parseDuration(c.Scoring.Cooldown, DefaultCooldown),
		MarketCapMultiplier: c.Scoring.MarketCapMultiplier,
	}
}

// Weights returns the default weight table with configured overrides applied.
func (c *Config) Weights() gem.Weights {
	w := gem.DefaultWeights()
	for name, v := range c.Scoring.Weights {
		w[gem.Predicate(name)] = v
	}
	return w
}

// RetryPolicy returns the retry policy of the batch fetch.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: parseDuration(c.Retry.InitialDelay, DefaultRetryInitialDelay),
		Increment:    parseDuration(c.Retry.Increment, DefaultRetryIncrement),
	}
}

// Window returns the windowing policy of the running averages.
func (c *Config) Window() data.AveragesWindow {
	return data.AveragesWindow{
		Limit:  c.Storage.AveragesWindow,
		MaxAge: parseDuration(c.Storage.AveragesMaxAge, 0),
	}
}

func (c *Config) ConnectTimeout() time.Duration {
	return parseDuration(c.Source.ConnectTimeout, DefaultConnectTimeout)
}

func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Source.RequestTimeout, DefaultRequestTimeout)
}

func (c *Config) DetailMissTTL() time.Duration {
	return parseDuration(c.Source.DetailMissTTL, 0)
}

func (c *Config) AITimeout() time.Duration {
	return parseDuration(c.AIConfig.Timeout, DefaultAITimeout)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
