package app

import (
	"testing"
	"time"

	"github.com/yungbote/erpkernel/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"STORAGE_DRIVER", "REDIS_ADDR", "POLICY_FILE", "OTEL_ENABLED", "IDEMPOTENCY_CACHE_TTL"} {
		t.Setenv(k, "")
	}
	t.Setenv("STORAGE_DRIVER", "sqlite")
	cfg := LoadConfig(nil)
	if cfg.DB.Driver != db.DriverSQLite {
		t.Fatalf("driver: %q", cfg.DB.Driver)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("auto migrate should default on")
	}
	if cfg.Otel.Enabled {
		t.Fatalf("otel should be off for an empty OTEL_ENABLED")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("IDEMPOTENCY_CACHE_TTL", "3600")
	t.Setenv("POLICY_FILE", "/etc/erpkernel/policy.yaml")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("SERVICE_NAME", "erp-ops")

	cfg := LoadConfig(nil)
	if cfg.DB.Driver != db.DriverPostgres || cfg.DB.PostgresHost != "db.internal" {
		t.Fatalf("db config: %+v", cfg.DB)
	}
	if cfg.RedisAddr != "cache:6379" || cfg.IdempotencyCacheTTL != time.Hour {
		t.Fatalf("cache config: addr=%q ttl=%s", cfg.RedisAddr, cfg.IdempotencyCacheTTL)
	}
	if cfg.PolicyFile != "/etc/erpkernel/policy.yaml" {
		t.Fatalf("policy file: %q", cfg.PolicyFile)
	}
	if !cfg.Otel.Enabled || cfg.Otel.Exporter != "otlp" || cfg.Otel.OTLPEndpoint != "collector:4318" || cfg.Otel.ServiceName != "erp-ops" {
		t.Fatalf("otel config: %+v", cfg.Otel)
	}
}
