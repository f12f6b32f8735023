package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"synoptic/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "10s")
	viper.SetDefault("server.write_timeout_seconds", "10s")

	viper.SetDefault("mqtt.port", constants.DefaultMQTTPort)
	viper.SetDefault("mqtt.tls", true)
	viper.SetDefault("mqtt.topic_filter", constants.DefaultTopicFilter)
	viper.SetDefault("mqtt.keep_alive", constants.DefaultMQTTKeepAlive)
	viper.SetDefault("mqtt.connect_timeout", constants.DefaultMQTTConnectTimeout)

	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.sslmode", "disable")
	viper.SetDefault("database.run_migrations", true)

	viper.SetDefault("ingest.batch_size", constants.DefaultBatchSize)
	viper.SetDefault("ingest.flush_interval", constants.DefaultFlushInterval)
	viper.SetDefault("ingest.poll_interval", constants.DefaultPollInterval)
	viper.SetDefault("ingest.max_workers", constants.DefaultMaxWorkers)
	viper.SetDefault("ingest.pending_batches", constants.DefaultPendingBatches)
	viper.SetDefault("ingest.fetch_retry.max_attempts", 3)
	viper.SetDefault("ingest.fetch_retry.initial_interval", "1s")
	viper.SetDefault("ingest.fetch_retry.max_interval", "30s")
	viper.SetDefault("ingest.fetch_retry.multiplier", 2.0)

	viper.SetDefault("filter.disallowed_extensions", constants.DefaultDisallowedExtensions)

	viper.SetDefault("decode.required_keys", constants.DefaultRequiredKeys)

	viper.SetDefault("alert.monitor_centre", constants.DefaultMonitorCentre)
	viper.SetDefault("alert.rate_limit.enabled", true)
	viper.SetDefault("alert.rate_limit.rps", 10.0)
	viper.SetDefault("alert.rate_limit.burst", 20)

	viper.SetDefault("jira.project_key", "WI")
	viper.SetDefault("jira.issue_type", constants.DefaultJiraIssueType)

	viper.SetDefault("circuitbreaker.enabled", true)
	viper.SetDefault("circuitbreaker.max_requests", 3)
	viper.SetDefault("circuitbreaker.interval", "60s")
	viper.SetDefault("circuitbreaker.timeout", "60s")
	viper.SetDefault("circuitbreaker.failure_ratio", 0.5)
	viper.SetDefault("circuitbreaker.min_requests", 3)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvVariables() {
	viper.BindEnv("mqtt.host", "MQTT_HOST")
	viper.BindEnv("mqtt.port", "MQTT_PORT")
	viper.BindEnv("mqtt.username", "MQTT_USERNAME")
	viper.BindEnv("mqtt.password", "MQTT_PASSWORD")
	viper.BindEnv("mqtt.topic_filter", "MQTT_TOPIC_FILTER")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("download.root", "DOWNLOAD_ROOT")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("jira.url", "JIRA_URL")
	viper.BindEnv("jira.token", "JIRA_TOKEN")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}
