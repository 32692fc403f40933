package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	SnapshotBackendFile     = "file"
	SnapshotBackendPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Snapshot SnapshotConfig
	Relay    RelayConfig
	License  LicenseConfig
	Reports  ReportsConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SnapshotConfig selects where the persisted attendance document lives.
type SnapshotConfig struct {
	Backend string
	Slot    string
	Dir     string
}

// RelayConfig covers both the relay endpoints served by this process and the
// client used to push/pull transfer codes.
type RelayConfig struct {
	Enabled         bool
	TTL             time.Duration
	MaxPayloadBytes int64
	BaseURL         string
	ClientTimeout   time.Duration
}

// LicenseConfig holds the fixed license keys and the free-tier limit.
type LicenseConfig struct {
	ProKey           string
	EvalKey          string
	EvalPeriod       time.Duration
	FreeStudentLimit int
}

// ReportsConfig configures asynchronous workbook generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	backend := strings.ToLower(v.GetString("SNAPSHOT_BACKEND"))
	if backend != SnapshotBackendPostgres {
		backend = SnapshotBackendFile
	}
	cfg.Snapshot = SnapshotConfig{
		Backend: backend,
		Slot:    v.GetString("SNAPSHOT_SLOT"),
		Dir:     v.GetString("SNAPSHOT_DIR"),
	}

	maxPayload := v.GetInt64("RELAY_MAX_PAYLOAD_BYTES")
	if maxPayload <= 0 {
		maxPayload = 5 * 1024 * 1024
	}
	cfg.Relay = RelayConfig{
		Enabled:         v.GetBool("ENABLE_RELAY"),
		TTL:             parseDuration(v.GetString("RELAY_TTL"), time.Hour),
		MaxPayloadBytes: maxPayload,
		BaseURL:         strings.TrimRight(v.GetString("RELAY_BASE_URL"), "/"),
		ClientTimeout:   parseDuration(v.GetString("RELAY_CLIENT_TIMEOUT"), 15*time.Second),
	}

	freeLimit := v.GetInt("LICENSE_FREE_STUDENT_LIMIT")
	if freeLimit <= 0 {
		freeLimit = 5
	}
	cfg.License = LicenseConfig{
		ProKey:           v.GetString("LICENSE_PRO_KEY"),
		EvalKey:          v.GetString("LICENSE_EVAL_KEY"),
		EvalPeriod:       parseDuration(v.GetString("LICENSE_EVAL_PERIOD"), 30*24*time.Hour),
		FreeStudentLimit: freeLimit,
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SNAPSHOT_BACKEND", SnapshotBackendFile)
	v.SetDefault("SNAPSHOT_SLOT", "attendance-storage")
	v.SetDefault("SNAPSHOT_DIR", "./data")

	v.SetDefault("ENABLE_RELAY", true)
	v.SetDefault("RELAY_TTL", "1h")
	v.SetDefault("RELAY_MAX_PAYLOAD_BYTES", 5*1024*1024)
	v.SetDefault("RELAY_BASE_URL", "http://localhost:8080")
	v.SetDefault("RELAY_CLIENT_TIMEOUT", "15s")

	v.SetDefault("LICENSE_PRO_KEY", "ATTEND-PRO-2025")
	v.SetDefault("LICENSE_EVAL_KEY", "ATTEND-EVAL-2025")
	v.SetDefault("LICENSE_EVAL_PERIOD", "720h")
	v.SetDefault("LICENSE_FREE_STUDENT_LIMIT", 5)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 2)

	v.SetDefault("ENABLE_METRICS", true)
}

// isMissingFile covers viper returning a raw fs error when SetConfigFile points at a missing .env.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
