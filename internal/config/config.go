package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	JobAPI    JobAPIConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
	Chart     ChartConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// JobAPIConfig selects where job records live: the remote job API or a
// Postgres table read directly.
type JobAPIConfig struct {
	Source  string
	BaseURL string
	Timeout time.Duration
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

type NATSConfig struct {
	URL         string
	ConnTimeout time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type TelemetryConfig struct {
	CollectorURL string
}

type ChartConfig struct {
	FrameInterval time.Duration
	ThemeFile     string
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing, invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	dur := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	conns := func(key string) int32 {
		raw := opt(key)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			invalid = append(invalid, key)
			return 0
		}
		return int32(n)
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.JobAPI = JobAPIConfig{
		Source:  strings.ToLower(opt("JOB_SOURCE")),
		Timeout: dur("JOB_API_TIMEOUT", 10*time.Second),
	}
	switch cfg.JobAPI.Source {
	case "", SourceHTTP:
		cfg.JobAPI.Source = SourceHTTP
		cfg.JobAPI.BaseURL = strings.TrimRight(req("JOB_API_BASE_URL"), "/")
	case SourcePostgres:
	default:
		invalid = append(invalid, "JOB_SOURCE")
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        dur("DB_CONNECT_TIMEOUT", 0),
		PoolMaxConns:          conns("DB_POOL_MAX_CONNS"),
		PoolMinConns:          conns("DB_POOL_MIN_CONNS"),
		PoolMaxConnLifetime:   dur("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   dur("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: dur("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}
	if cfg.JobAPI.Source == SourcePostgres {
		cfg.Database.DBHost = req("DB_HOST")
		cfg.Database.DBName = req("DB_NAME")
		cfg.Database.DBUser = req("DB_USER")
	}
	if cfg.Database.DBPort == "" {
		cfg.Database.DBPort = "5432"
	}
	if cfg.Database.DBSSLMode == "" {
		cfg.Database.DBSSLMode = "disable"
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      dur("REDIS_TTL", 10*time.Minute),
	}

	cfg.NATS = NATSConfig{
		URL:         opt("NATS_URL"),
		ConnTimeout: dur("NATS_CONN_TIMEOUT", 5*time.Second),
	}

	cfg.Auth = AuthConfig{
		AccessSecret: req("JWT_ACCESS_SECRET"),
	}

	cfg.Telemetry = TelemetryConfig{
		CollectorURL: opt("OTEL_COLLECTOR_URL"),
	}

	cfg.Chart = ChartConfig{
		FrameInterval: dur("CHART_FRAME_INTERVAL", 16*time.Millisecond),
		ThemeFile:     opt("THEME_FILE"),
	}
	if cfg.Chart.FrameInterval == 0 {
		invalid = append(invalid, "CHART_FRAME_INTERVAL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}
