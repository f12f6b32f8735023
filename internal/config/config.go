package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	MQTT           MQTTConfig
	Database       DatabaseConfig
	Ingest         IngestConfig
	Filter         FilterConfig
	Download       DownloadConfig
	Decode         DecodeConfig
	Alert          AlertConfig
	Jira           JiraConfig
	CircuitBreaker CircuitBreakerConfig
	Logging        LoggingConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type MQTTConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TLS            bool          `mapstructure:"tls"`
	TopicFilter    string        `mapstructure:"topic_filter"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type IngestConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxWorkers     int           `mapstructure:"max_workers"`
	PendingBatches int           `mapstructure:"pending_batches"`
	FetchRetry     RetryConfig   `mapstructure:"fetch_retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type FilterConfig struct {
	Blacklist            []string `mapstructure:"blacklist"`
	DisallowedExtensions []string `mapstructure:"disallowed_extensions"`
}

type DownloadConfig struct {
	Root string `mapstructure:"root"`
}

type DecodeConfig struct {
	Command        string   `mapstructure:"command"`
	Args           []string `mapstructure:"args"`
	RequiredKeys   []string `mapstructure:"required_keys"`
	AdditionalKeys []string `mapstructure:"additional_keys"`
}

type AlertConfig struct {
	MonitorCentre string          `mapstructure:"monitor_centre"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type JiraConfig struct {
	URL        string `mapstructure:"url"`
	Token      string `mapstructure:"token"`
	ProjectKey string `mapstructure:"project_key"`
	IssueType  string `mapstructure:"issue_type"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
