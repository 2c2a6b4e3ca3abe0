package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Lock      LockConfig
	Analytics AnalyticsConfig
	Forecast  ForecastConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
	Kafka     KafkaConfig
	Influx    InfluxConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Lock drivers
const (
	LockDriverMemory = "memory"
	LockDriverRedis  = "redis"
)

// LockConfig selects the per-customer lock implementation
type LockConfig struct {
	Driver string
	TTL    time.Duration // Redis lease
}

// AnalyticsConfig holds anomaly detection and storage settings
type AnalyticsConfig struct {
	SigmaThreshold float64
	MinHistory     int
	StorageTimeout time.Duration
	Workers        int
}

// ForecastConfig holds forecast engine settings
type ForecastConfig struct {
	WindowDays        int
	MinWeekdaySamples int
	ApplyTrend        bool
	MaxDays           int
}

// BillingConfig holds bill generation settings
type BillingConfig struct {
	Workers int
	Rates   RatesConfig
}

// RatesConfig is the externally supplied rate schedule
type RatesConfig struct {
	Tiers    []RateTierConfig   `mapstructure:"tiers" validate:"required,min=1,dive"`
	Seasonal SeasonalRateConfig `mapstructure:"seasonal"`
	Fees     FeesConfig         `mapstructure:"fees"`
}

// RateTierConfig is one pricing tier; Max 0 means unbounded
type RateTierConfig struct {
	Min  float64 `mapstructure:"min" validate:"gte=0"`
	Max  float64 `mapstructure:"max" validate:"gte=0"`
	Rate float64 `mapstructure:"rate" validate:"gte=0"`
}

// SeasonalRateConfig holds seasonal multipliers; 0 means 1.0
type SeasonalRateConfig struct {
	Summer     float64 `mapstructure:"summer" validate:"gte=0"`
	Winter     float64 `mapstructure:"winter" validate:"gte=0"`
	SpringFall float64 `mapstructure:"spring_fall" validate:"gte=0"`
}

// FeesConfig holds fixed fees per bill
type FeesConfig struct {
	BaseService    float64 `mapstructure:"base_service" validate:"gte=0"`
	Infrastructure float64 `mapstructure:"infrastructure" validate:"gte=0"`
}

// SchedulerConfig holds cron specs for background jobs
type SchedulerConfig struct {
	Enabled          bool
	AnomalySweepCron string
	BillRunCron      string
	JobTimeout       time.Duration
}

// KafkaConfig holds domain event forwarding settings
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// InfluxConfig holds time-series sink settings
type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with HYDRO_ prefix (e.g., HYDRO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/hydrospark")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

// LoadFile loads configuration from an explicit TOML file plus environment
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("HYDRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Lock: LockConfig{
			Driver: v.GetString("lock.driver"),
			TTL:    v.GetDuration("lock.ttl"),
		},
		Analytics: AnalyticsConfig{
			SigmaThreshold: v.GetFloat64("analytics.sigma_threshold"),
			MinHistory:     v.GetInt("analytics.min_history"),
			StorageTimeout: v.GetDuration("analytics.storage_timeout"),
			Workers:        v.GetInt("analytics.workers"),
		},
		Forecast: ForecastConfig{
			WindowDays:        v.GetInt("forecast.window_days"),
			MinWeekdaySamples: v.GetInt("forecast.min_weekday_samples"),
			ApplyTrend:        true,
			MaxDays:           v.GetInt("forecast.max_days"),
		},
		Billing: BillingConfig{
			Workers: v.GetInt("billing.workers"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          v.GetBool("scheduler.enabled"),
			AnomalySweepCron: v.GetString("scheduler.anomaly_sweep_cron"),
			BillRunCron:      v.GetString("scheduler.bill_run_cron"),
			JobTimeout:       v.GetDuration("scheduler.job_timeout"),
		},
		Kafka: KafkaConfig{
			Enabled:  v.GetBool("kafka.enabled"),
			Brokers:  v.GetStringSlice("kafka.brokers"),
			Topic:    v.GetString("kafka.topic"),
			ClientID: v.GetString("kafka.client_id"),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}
	if v.IsSet("forecast.apply_trend") {
		cfg.Forecast.ApplyTrend = v.GetBool("forecast.apply_trend")
	}
	if v.IsSet("billing.rates") {
		if err := v.UnmarshalKey("billing.rates", &cfg.Billing.Rates); err != nil {
			return nil, fmt.Errorf("error decoding billing.rates: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "hydrospark-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "hydrospark"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Lock.Driver == "" {
		cfg.Lock.Driver = LockDriverMemory
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 30 * time.Second
	}
	if cfg.Analytics.SigmaThreshold == 0 {
		cfg.Analytics.SigmaThreshold = 2.0
	}
	if cfg.Analytics.MinHistory == 0 {
		cfg.Analytics.MinHistory = 5
	}
	if cfg.Analytics.StorageTimeout == 0 {
		cfg.Analytics.StorageTimeout = 5 * time.Second
	}
	if cfg.Analytics.Workers == 0 {
		cfg.Analytics.Workers = 4
	}
	if cfg.Forecast.WindowDays == 0 {
		cfg.Forecast.WindowDays = 90
	}
	if cfg.Forecast.MinWeekdaySamples == 0 {
		cfg.Forecast.MinWeekdaySamples = 2
	}
	if cfg.Forecast.MaxDays == 0 {
		cfg.Forecast.MaxDays = 365
	}
	if cfg.Billing.Workers == 0 {
		cfg.Billing.Workers = 4
	}
	if len(cfg.Billing.Rates.Tiers) == 0 {
		cfg.Billing.Rates = DefaultRates()
	}
	if cfg.Scheduler.AnomalySweepCron == "" {
		cfg.Scheduler.AnomalySweepCron = "0 2 * * *"
	}
	if cfg.Scheduler.BillRunCron == "" {
		cfg.Scheduler.BillRunCron = "0 3 * * *"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "hydrospark.domain-events"
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = cfg.App.Name
	}
	if cfg.Influx.Bucket == "" {
		cfg.Influx.Bucket = "hydrospark"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// DefaultRates returns the tiered, seasonal schedule used when none is configured
func DefaultRates() RatesConfig {
	return RatesConfig{
		Tiers: []RateTierConfig{
			{Min: 0, Max: 10, Rate: 2.50},
			{Min: 10, Max: 20, Rate: 3.00},
			{Min: 20, Max: 0, Rate: 3.50},
		},
		Seasonal: SeasonalRateConfig{Summer: 1.2, Winter: 0.9, SpringFall: 1.0},
		Fees:     FeesConfig{BaseService: 15.00, Infrastructure: 5.00},
	}
}

var ratesValidator = validator.New()

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Lock.Driver != LockDriverMemory && c.Lock.Driver != LockDriverRedis {
		return fmt.Errorf("lock.driver must be %q or %q, got %q", LockDriverMemory, LockDriverRedis, c.Lock.Driver)
	}
	if c.Analytics.SigmaThreshold < 0 {
		return fmt.Errorf("analytics.sigma_threshold cannot be negative")
	}
	if c.Analytics.MinHistory < 2 {
		return fmt.Errorf("analytics.min_history must be at least 2")
	}
	if c.Analytics.Workers < 0 || c.Billing.Workers < 0 {
		return fmt.Errorf("worker counts cannot be negative")
	}
	if c.Forecast.MaxDays < 1 {
		return fmt.Errorf("forecast.max_days must be positive")
	}

	if err := ratesValidator.Struct(c.Billing.Rates); err != nil {
		return fmt.Errorf("billing.rates: %w", err)
	}
	if _, err := c.Billing.Rates.Schedule(); err != nil {
		return fmt.Errorf("billing.rates: %w", err)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Org == "") {
		return fmt.Errorf("influx.url and influx.org are required when influx is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// Schedule converts the configured rates into a validated domain schedule
func (r RatesConfig) Schedule() (*billing.RateSchedule, error) {
	tiers := make([]billing.RateTier, len(r.Tiers))
	for i, t := range r.Tiers {
		tiers[i] = billing.RateTier{
			Min:  decimal.NewFromFloat(t.Min),
			Max:  decimal.NewFromFloat(t.Max),
			Rate: decimal.NewFromFloat(t.Rate),
		}
	}
	return billing.NewRateSchedule(tiers,
		billing.SeasonalMultipliers{
			Summer:     decimal.NewFromFloat(r.Seasonal.Summer),
			Winter:     decimal.NewFromFloat(r.Seasonal.Winter),
			SpringFall: decimal.NewFromFloat(r.Seasonal.SpringFall),
		},
		billing.Fees{
			BaseService:    decimal.NewFromFloat(r.Fees.BaseService),
			Infrastructure: decimal.NewFromFloat(r.Fees.Infrastructure),
		},
	)
}

// DSN returns the postgres connection URL
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
