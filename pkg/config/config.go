package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OTel       OTelConfig       `mapstructure:"otel"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name             string `mapstructure:"name"`
	Environment      string `mapstructure:"environment"` // development, staging, production
	LogLevel         string `mapstructure:"log_level"`
	Version          string `mapstructure:"version"`
	SeedTestMerchant bool   `mapstructure:"seed_test_merchant"`
	// MemoryFallback lets an unreachable Postgres or Redis be replaced by
	// process-local stores. Local development only.
	MemoryFallback bool `mapstructure:"memory_fallback"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings.
// An empty broker list disables the lifecycle event stream.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	ClientID    string   `mapstructure:"client_id"`
	EventsTopic string   `mapstructure:"events_topic"`
}

// Enabled reports whether at least one broker is configured
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// WorkerConfig holds queue consumer settings
type WorkerConfig struct {
	PaymentConcurrency int           `mapstructure:"payment_concurrency"`
	RefundConcurrency  int           `mapstructure:"refund_concurrency"`
	WebhookConcurrency int           `mapstructure:"webhook_concurrency"`
	MaxRetry           int           `mapstructure:"max_retry"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPort        int           `mapstructure:"metrics_port"`
}

// SimulationConfig controls the simulated payment network.
// TestMode fixes the processing delay and the payment outcome.
type SimulationConfig struct {
	TestMode        bool          `mapstructure:"test_mode"`
	ProcessingDelay time.Duration `mapstructure:"processing_delay"`
	PaymentSuccess  bool          `mapstructure:"payment_success"`
}

// WebhookConfig holds outbound delivery settings
type WebhookConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	TestRetrySchedule bool          `mapstructure:"test_retry_schedule"`
	// TestMerchantURL is the endpoint given to the seeded test merchant
	TestMerchantURL string `mapstructure:"test_merchant_url"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, environment variables are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "payment-gateway")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_TEST_MERCHANT", true)
	v.SetDefault("APP_MEMORY_FALLBACK", false)

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Database defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "gateway_user")
	v.SetDefault("DB_PASSWORD", "gateway_pass")
	v.SetDefault("DB_NAME", "payment_gateway")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 50)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults (empty brokers disables the event stream)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_CLIENT_ID", "payment-gateway")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "payment-gateway.events")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "payment-gateway")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Worker defaults
	v.SetDefault("WORKER_PAYMENT_CONCURRENCY", 10)
	v.SetDefault("WORKER_REFUND_CONCURRENCY", 5)
	v.SetDefault("WORKER_WEBHOOK_CONCURRENCY", 10)
	v.SetDefault("QUEUE_MAX_RETRY", 3)
	v.SetDefault("WORKER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("WORKER_METRICS_PORT", 9091)

	// Simulation defaults
	v.SetDefault("TEST_MODE", false)
	v.SetDefault("TEST_PROCESSING_DELAY", 1000)
	v.SetDefault("TEST_PAYMENT_SUCCESS", true)

	// Webhook defaults
	v.SetDefault("WEBHOOK_TIMEOUT", "5s")
	v.SetDefault("WEBHOOK_RETRY_INTERVALS_TEST", false)
	v.SetDefault("TEST_MERCHANT_WEBHOOK_URL", "")
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENV")
	cfg.App.Version = v.GetString("APP_VERSION")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")
	cfg.App.SeedTestMerchant = v.GetBool("SEED_TEST_MERCHANT")
	cfg.App.MemoryFallback = v.GetBool("APP_MEMORY_FALLBACK")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Database
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetInt("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.DBName = v.GetString("DB_NAME")
	cfg.Database.SSLMode = v.GetString("DB_SSLMODE")
	cfg.Database.MaxConns = v.GetInt("DB_MAX_CONNS")
	cfg.Database.MinConns = v.GetInt("DB_MIN_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DB_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DB_CONN_MAX_IDLE_TIME")
	cfg.Database.AutoMigrate = v.GetBool("DB_AUTO_MIGRATE")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")
	cfg.Kafka.EventsTopic = v.GetString("KAFKA_EVENTS_TOPIC")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Worker
	cfg.Worker.PaymentConcurrency = v.GetInt("WORKER_PAYMENT_CONCURRENCY")
	cfg.Worker.RefundConcurrency = v.GetInt("WORKER_REFUND_CONCURRENCY")
	cfg.Worker.WebhookConcurrency = v.GetInt("WORKER_WEBHOOK_CONCURRENCY")
	cfg.Worker.MaxRetry = v.GetInt("QUEUE_MAX_RETRY")
	cfg.Worker.ShutdownTimeout = v.GetDuration("WORKER_SHUTDOWN_TIMEOUT")
	cfg.Worker.MetricsPort = v.GetInt("WORKER_METRICS_PORT")

	// Simulation, TEST_PROCESSING_DELAY is in milliseconds
	cfg.Simulation.TestMode = v.GetBool("TEST_MODE")
	cfg.Simulation.ProcessingDelay = time.Duration(v.GetInt64("TEST_PROCESSING_DELAY")) * time.Millisecond
	cfg.Simulation.PaymentSuccess = v.GetBool("TEST_PAYMENT_SUCCESS")

	// Webhook
	cfg.Webhook.Timeout = v.GetDuration("WEBHOOK_TIMEOUT")
	cfg.Webhook.TestRetrySchedule = v.GetBool("WEBHOOK_RETRY_INTERVALS_TEST") || cfg.Simulation.TestMode
	cfg.Webhook.TestMerchantURL = v.GetString("TEST_MERCHANT_WEBHOOK_URL")

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("DB_HOST and DB_NAME are required")
	}

	if c.Worker.PaymentConcurrency <= 0 || c.Worker.RefundConcurrency <= 0 || c.Worker.WebhookConcurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive")
	}

	if c.Simulation.ProcessingDelay < 0 {
		return fmt.Errorf("TEST_PROCESSING_DELAY must not be negative")
	}

	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}

	if c.App.MemoryFallback && c.IsProduction() {
		return fmt.Errorf("APP_MEMORY_FALLBACK is not allowed in production")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
