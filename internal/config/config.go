package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/analytics-database/internal/platform/envutil"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// MemoryDSN is the shared in-memory sqlite database used in test mode.
	MemoryDSN = "file::memory:?cache=shared"
)

type Database struct {
	Driver      string        `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN         string        `yaml:"dsn" validate:"required"`
	PoolSize    int           `yaml:"pool_size" validate:"min=1"`
	MaxOverflow int           `yaml:"max_overflow" validate:"min=0"`
	PoolRecycle time.Duration `yaml:"pool_recycle"`
	TwoPhase    bool          `yaml:"twophase"`
	Autocommit  bool          `yaml:"autocommit"`
	LogLevel    string        `yaml:"log_level" validate:"omitempty,oneof=silent error warn info"`
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Environment string  `yaml:"environment"`
	Endpoint    string  `yaml:"otlp_endpoint"`
	Headers     string  `yaml:"otlp_headers"`
	Insecure    bool    `yaml:"otlp_insecure"`
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

type Config struct {
	Database Database `yaml:"database"`
	Tracing  Tracing  `yaml:"tracing"`
	Metrics  Metrics  `yaml:"metrics"`
	LogMode  string   `yaml:"log_mode"`
	TestMode bool     `yaml:"test_mode"`
	// LogRedaction hashes user identifiers and drops credentials in log fields.
	LogRedaction bool   `yaml:"log_redaction"`
	LogHashSalt  string `yaml:"log_hash_salt"`
}

type Options struct {
	// File is an optional YAML file; a missing file is an error only when set.
	File string
	// EnvFile defaults to ".env"; a missing env file is ignored.
	EnvFile string
}

// Defaults mirror the production deployment of the warehouse.
func Defaults() Config {
	return Config{
		Database: Database{
			Driver:      DriverPostgres,
			PoolSize:    30,
			MaxOverflow: 10,
			PoolRecycle: 300 * time.Second,
			LogLevel:    "warn",
		},
		Tracing: Tracing{
			ServiceName: "analytics-database",
			SampleRatio: 0.1,
		},
		Metrics: Metrics{Addr: ":9464"},
		LogMode:      "dev",
		LogRedaction: true,
	}
}

// Load resolves configuration from defaults, the YAML file, the env file and
// the process environment, in increasing precedence.
func Load(opts Options) (*Config, error) {
	cfg := Defaults()

	if opts.File != "" {
		b, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	applyEnv(&cfg)

	if cfg.TestMode {
		cfg.Database.Driver = DriverSQLite
		cfg.Database.DSN = MemoryDSN
		cfg.Database.TwoPhase = false
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	db := &cfg.Database
	db.Driver = strings.ToLower(envutil.String("ANALYTICS_DB_DRIVER", db.Driver))
	db.DSN = envutil.String("ANALYTICS_DB_DSN", db.DSN)
	db.PoolSize = envutil.Int("ANALYTICS_DB_POOL_SIZE", db.PoolSize)
	db.MaxOverflow = envutil.Int("ANALYTICS_DB_MAX_OVERFLOW", db.MaxOverflow)
	db.PoolRecycle = envutil.Seconds("ANALYTICS_DB_POOL_RECYCLE", db.PoolRecycle)
	db.TwoPhase = envutil.Bool("ANALYTICS_DB_TWOPHASE", db.TwoPhase)
	db.Autocommit = envutil.Bool("ANALYTICS_DB_AUTOCOMMIT", db.Autocommit)
	db.LogLevel = strings.ToLower(envutil.String("ANALYTICS_DB_LOG_LEVEL", db.LogLevel))
	tr := &cfg.Tracing
	tr.Enabled = envutil.Bool("OTEL_ENABLED", tr.Enabled)
	tr.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", tr.Endpoint)
	tr.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", tr.Headers)
	tr.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", tr.Insecure)
	tr.Environment = envutil.String("APP_ENV", tr.Environment)
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			tr.SampleRatio = f
		}
	}
	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.TestMode = envutil.Bool("ANALYTICS_TEST_MODE", cfg.TestMode)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.LogRedaction = envutil.Bool("LOG_REDACTION_ENABLED", cfg.LogRedaction)
	cfg.LogHashSalt = envutil.String("LOG_HASH_SALT", cfg.LogHashSalt)
}

var validate = validator.New()

func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
