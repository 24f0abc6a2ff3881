// Package storetest builds throwaway sqlite-backed store handles for tests.
package storetest

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/data/db"
	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
	"github.com/yungbote/erpkernel/internal/policy"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a migrated sqlite database in the test's temp dir.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	gdb, err := db.Open(db.Config{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(tb.TempDir(), "kernel.db"),
		Silent:     true,
	}, nil)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close(gdb) })
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return gdb
}

// PostgresDB opens and migrates the database named by TEST_POSTGRES_DSN, and
// skips the test when it is unset. Tables are shared between runs, so callers
// scope their rows with a fresh org id.
func PostgresDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres-backed tests")
	}
	gdb, err := db.Open(db.Config{Driver: db.DriverPostgres, PostgresDSN: dsn, Silent: true}, nil)
	if err != nil {
		tb.Fatalf("open postgres: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close(gdb) })
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Handle returns a handle over a fresh database that allows every mutation.
// Callers may replace Policy, Cache or Hooks before first use.
func Handle(tb testing.TB) *store.Handle {
	tb.Helper()
	return &store.Handle{
		DB:     DB(tb),
		Log:    Logger(tb),
		Hooks:  observability.NoopHooks{},
		Policy: policy.AllowAll{},
	}
}
