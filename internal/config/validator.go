package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateMQTT(cfg.MQTT); err != nil {
		errs = append(errs, err)
	}

	if err := validateIngest(cfg.Ingest); err != nil {
		errs = append(errs, err)
	}

	if err := validateFilter(cfg.Filter); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateMQTT(cfg MQTTConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "mqtt.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.TopicFilter == "" {
		return &ValidationError{
			Field:   "mqtt.topic_filter",
			Message: "topic filter must not be empty",
		}
	}

	return nil
}

func validateIngest(cfg IngestConfig) error {
	if cfg.BatchSize < 1 {
		return &ValidationError{
			Field:   "ingest.batch_size",
			Message: fmt.Sprintf("batch size must be at least 1, got %d", cfg.BatchSize),
		}
	}

	if cfg.FlushInterval <= 0 {
		return &ValidationError{
			Field:   "ingest.flush_interval",
			Message: "flush interval must be positive",
		}
	}

	if cfg.PollInterval <= 0 {
		return &ValidationError{
			Field:   "ingest.poll_interval",
			Message: "poll interval must be positive",
		}
	}

	if cfg.MaxWorkers < 1 {
		return &ValidationError{
			Field:   "ingest.max_workers",
			Message: fmt.Sprintf("max workers must be at least 1, got %d", cfg.MaxWorkers),
		}
	}

	return nil
}

func validateFilter(cfg FilterConfig) error {
	for _, ext := range cfg.DisallowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return &ValidationError{
				Field:   "filter.disallowed_extensions",
				Message: fmt.Sprintf("extension %q must start with a dot", ext),
			}
		}
	}

	return nil
}
