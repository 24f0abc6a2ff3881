package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/auth"
	"github.com/yungbote/erpkernel/internal/data/db"
	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/kernel"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
	"github.com/yungbote/erpkernel/internal/policy"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Metrics *observability.Metrics
	Store   *store.Handle

	redis        *store.RedisReceiptCache
	otelShutdown func(context.Context) error
}

// New builds the logger from LOG_MODE, loads the environment and wires the app.
func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	a, err := NewWithConfig(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.DB.Driver, err)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = db.Close(theDB)
			return nil, fmt.Errorf("%s automigrate: %w", cfg.DB.Driver, err)
		}
	}

	gate, err := loadPolicy(log, cfg.PolicyFile)
	if err != nil {
		_ = db.Close(theDB)
		return nil, err
	}

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      observability.NewMetrics(),
		otelShutdown: otelShutdown,
	}
	var cache store.ReceiptCache
	if cfg.RedisAddr != "" {
		rc, err := store.NewRedisReceiptCache(ctx, log, cfg.RedisAddr, cfg.IdempotencyCacheTTL)
		if err != nil {
			_ = db.Close(theDB)
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = rc
		cache = rc
	} else {
		cache = store.NewMemoryReceiptCache()
	}

	a.Store = &store.Handle{
		DB:     theDB,
		Log:    log,
		Cache:  cache,
		Hooks:  a.Metrics,
		Policy: gate,
	}
	return a, nil
}

func loadPolicy(log *logger.Logger, path string) (mutation.PolicyGate, error) {
	if path == "" {
		log.Warn("POLICY_FILE not set; every mutation is allowed")
		return policy.AllowAll{}, nil
	}
	table, err := policy.LoadRoleTable(path)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded role policy", "path", path)
	return table, nil
}

// ContextFor builds the kernel context for an authenticated principal.
func (a *App) ContextFor(claims *auth.Claims) kernel.MutationContext {
	return kernel.MutationContext{
		OrgID: claims.OrgID,
		Actor: claims.Actor(),
		Store: a.Store,
	}
}

// ContextFromToken verifies a bearer token and builds its kernel context.
func (a *App) ContextFromToken(token string) (kernel.MutationContext, error) {
	claims, err := auth.ParseToken(a.Cfg.JWTSecretKey, token)
	if err != nil {
		return kernel.MutationContext{}, err
	}
	return a.ContextFor(claims), nil
}

// Ready checks the database and, when configured, redis.
func (a *App) Ready(ctx context.Context) error {
	if a == nil || a.DB == nil {
		return errors.New("app not initialized")
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
