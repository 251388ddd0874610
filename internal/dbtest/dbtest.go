// Package dbtest opens migrated databases for tests: in-memory SQLite by
// default, Postgres when a DSN is configured.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/config"
	"github.com/Leganyst/booking-core/internal/db"
	"github.com/Leganyst/booking-core/internal/model"
)

// Open returns a fresh, migrated database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_busy_timeout=5000", name, uuid.NewString()[:8])

	gdb, err := db.NewGormDB(&config.DBConfig{Driver: "sqlite", SQLitePath: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// PostgresDSNEnv names the variable holding a Postgres DSN for tests that
// need real row locks and the exclusion constraint.
const PostgresDSNEnv = "BOOKING_TEST_POSTGRES_DSN"

// OpenPostgres returns a migrated Postgres database, skipping t when none
// is configured or reachable. Data is shared between tests, so callers
// seed their own merchants.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	gdb, err := db.NewGormDB(&config.DBConfig{Driver: "postgres", URL: dsn, MaxOpenConns: 20}, zap.NewNop())
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		t.Skipf("postgres not available: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
