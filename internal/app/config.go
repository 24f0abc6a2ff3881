package app

import (
	"strings"
	"time"

	"github.com/yungbote/erpkernel/internal/data/db"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
	"github.com/yungbote/erpkernel/internal/utils"
)

type Config struct {
	LogMode string
	DB      db.Config
	// AutoMigrate runs the schema migration when the app starts.
	AutoMigrate bool

	RedisAddr           string
	IdempotencyCacheTTL time.Duration

	// PolicyFile is a YAML role table. Empty means every mutation is allowed.
	PolicyFile string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	MetricsAddr string
	Otel        observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	logMode := utils.GetEnv("LOG_MODE", "development", log)
	serviceName := utils.GetEnv("SERVICE_NAME", "erpkernel", log)
	otlpEndpoint := strings.TrimSpace(utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log))
	return Config{
		LogMode: logMode,
		DB: db.Config{
			Driver:           strings.ToLower(utils.GetEnv("STORAGE_DRIVER", db.DriverSQLite, log)),
			PostgresHost:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
			PostgresPort:     utils.GetEnv("POSTGRES_PORT", "5432", log),
			PostgresUser:     utils.GetEnv("POSTGRES_USER", "postgres", log),
			PostgresPassword: utils.GetEnv("POSTGRES_PASSWORD", "", log),
			PostgresName:     utils.GetEnv("POSTGRES_NAME", "erpkernel", log),
			PostgresDSN:      utils.GetEnv("POSTGRES_DSN", "", log),
			SQLitePath:       utils.GetEnv("SQLITE_PATH", "erpkernel.db", log),
			SlowThreshold:    utils.GetEnvAsDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond, log),
		},
		AutoMigrate:         utils.GetEnvAsBool("AUTO_MIGRATE", true, log),
		RedisAddr:           utils.GetEnv("REDIS_ADDR", "", log),
		IdempotencyCacheTTL: utils.GetEnvAsDuration("IDEMPOTENCY_CACHE_TTL", 24*time.Hour, log),
		PolicyFile:          utils.GetEnv("POLICY_FILE", "", log),
		JWTSecretKey:        utils.GetEnv("JWT_SECRET_KEY", "", log),
		AccessTokenTTL:      time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		MetricsAddr:         utils.GetEnv("METRICS_ADDR", ":9090", log),
		Otel: observability.OtelConfig{
			Enabled:      utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName:  serviceName,
			Environment:  logMode,
			Version:      utils.GetEnv("SERVICE_VERSION", "dev", log),
			Exporter:     utils.GetEnv("OTEL_EXPORTER", "stdout", log),
			OTLPEndpoint: otlpEndpoint,
			OTLPInsecure: utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio:  observability.ParseSampleRatio(utils.GetEnv("OTEL_SAMPLER_RATIO", "1", log)),
		},
	}
}
