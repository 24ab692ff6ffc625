package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jCool10/LearnSmart-sub001/internal/data/db"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/envutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port    string
	LogMode string

	DB db.Config

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	CORSAllowedOrigins []string
	MetricsEnabled     bool
	Otel               observability.OtelConfig
}

// LoadDotEnv loads .env when present. Real environment variables win.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil {
		if log != nil {
			log.Debug("No .env file loaded", "error", err)
		}
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "learnsmart"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "learnsmart.db"),
			MaxConns:   envutil.Int("DB_MAX_CONNS", 20),
		},
		JWTSecretKey:       envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:     envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:    envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RedisAddr:          envutil.String("REDIS_ADDR", ""),
		RedisPassword:      envutil.String("REDIS_PASSWORD", ""),
		RedisDB:            envutil.Int("REDIS_DB", 0),
		StatsCacheTTL:      envutil.Seconds("STATS_CACHE_TTL_SECONDS", time.Minute),
		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "learnsmart"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if log != nil && cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the insecure default")
	}
	return cfg
}
