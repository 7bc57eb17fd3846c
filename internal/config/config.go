// Package config provides configuration structures and validation for the
// settlement platform. It handles environment-based configuration for all
// major components including server settings, database connections, message
// queues, the settlement cycle, and the active payout provider.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all
// components. Each field represents a major subsystem's configuration and is
// validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Settlement  SettlementConfig
	Fees        FeesConfig
	Provider    ProviderConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	CollectionTopic   string // payment collection reports
	RunTopic          string // settlement run triggers
	NotificationTopic string // fire-and-forget payout notifications
	DLQTopic          string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains revenue-adjustment outbox configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// SettlementConfig contains settlement cycle configuration
type SettlementConfig struct {
	DefaultDelayDays   int    // used when a business has no per-business delay
	Currency           string // platform settlement currency
	PlatformBusinessID string // wallet holding the platform's accrued revenue
}

// FeesConfig contains the platform's default fee schedule. Percentages are
// decimal strings; per-business overrides take precedence field by field.
type FeesConfig struct {
	FeePercent string
	FeeFixed   int64
	FeeCap     int64 // 0 means uncapped
	VATPercent string
}

// ProviderConfig contains bank-transfer provider configuration. The active
// provider is selected once at startup, not per call.
type ProviderConfig struct {
	Active             string // "bani" or "ninepsb"
	BaseURL            string
	APIKey             string
	DisbursingAccount  string
	DisbursingBankCode string
	CallTimeout        time.Duration
}

// validate performs comprehensive validation of all configuration values
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.CollectionTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_COLLECTION_TOPIC is required")
	}
	if c.Kafka.RunTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_RUN_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Settlement.DefaultDelayDays < 0 {
		validationErrors = append(validationErrors, "SETTLEMENT_DEFAULT_DELAY_DAYS cannot be negative")
	}
	if len(c.Settlement.Currency) != 3 {
		validationErrors = append(validationErrors, "SETTLEMENT_CURRENCY must be a 3-letter code")
	}
	if c.Settlement.PlatformBusinessID == "" {
		validationErrors = append(validationErrors, "SETTLEMENT_PLATFORM_BUSINESS_ID is required")
	}

	if c.Fees.FeePercent == "" {
		validationErrors = append(validationErrors, "FEES_PERCENT is required")
	}
	if c.Fees.VATPercent == "" {
		validationErrors = append(validationErrors, "FEES_VAT_PERCENT is required")
	}
	if c.Fees.FeeFixed < 0 {
		validationErrors = append(validationErrors, "FEES_FIXED cannot be negative")
	}
	if c.Fees.FeeCap < 0 {
		validationErrors = append(validationErrors, "FEES_CAP cannot be negative")
	}

	switch c.Provider.Active {
	case "bani", "ninepsb":
	default:
		validationErrors = append(validationErrors, "PROVIDER_ACTIVE must be one of: bani, ninepsb")
	}
	if c.Provider.BaseURL == "" {
		validationErrors = append(validationErrors, "PROVIDER_BASE_URL is required")
	}
	if c.Provider.CallTimeout <= 0 {
		validationErrors = append(validationErrors, "PROVIDER_CALL_TIMEOUT must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
