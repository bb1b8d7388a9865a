// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Ranking   RankingConfig           `mapstructure:"ranking"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Currency  CurrencyConfig          `mapstructure:"currency"`
	Alerts    AlertsConfig            `mapstructure:"alerts"`
	Search    SearchConfig            `mapstructure:"search"`
	Scheduler SchedulerConfig         `mapstructure:"scheduler"`
	Tracing   TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Environment  string `mapstructure:"environment"`
	HTTPAddress  string `mapstructure:"http_address"`
	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single URL, wins over addresses
}

// GetURL returns the URL field or the first address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// --- Ranking engine ---

// RankingConfig controls the scoring engine and its history side effect.
type RankingConfig struct {
	Timezone           string `mapstructure:"timezone"`
	HistoryConcurrency int    `mapstructure:"history_concurrency"`
	RecordHistory      bool   `mapstructure:"record_history"`
	HistoryDays        int    `mapstructure:"history_days"`
}

// Location resolves Timezone, falling back to UTC.
func (r RankingConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CacheConfig struct {
	Prefix     string `mapstructure:"prefix"`
	Codec      string `mapstructure:"codec"`       // json | msgpack
	DatasetTTL int    `mapstructure:"dataset_ttl"` // milliseconds
	HistoryTTL int    `mapstructure:"history_ttl"` // milliseconds
}

type CurrencyConfig struct {
	RatesURL string `mapstructure:"rates_url"`
	Timeout  int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
}

// AlertsConfig holds settings for the score-movement notifier.
type AlertsConfig struct {
	Region    string  `mapstructure:"region"`
	Threshold float64 `mapstructure:"threshold"`
	WindowHrs int     `mapstructure:"window_hours"`
	SNS       struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"ses"`
}

type SearchConfig struct {
	IndexPrefix string `mapstructure:"index_prefix"`
}

// SchedulerConfig holds cron specs (with seconds) for the background jobs.
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	WarmCache     string `mapstructure:"warm_cache"`
	IndexRankings string `mapstructure:"index_rankings"`
	ScanAlerts    string `mapstructure:"scan_alerts"`
}

// TracingConfig enables span export. Spans are always created; without an
// endpoint they stay in-process.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
