// Package dbtest opens isolated in-memory sqlite databases with the full
// schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/migrate"
)

// New returns a migrated sqlite database private to the test. The pool is
// capped at one connection so concurrent transactions serialize.
func New(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(migrate.Models...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db.NewFromGorm(conn)
}

// Gorm is a shorthand for New(t).DB().
func Gorm(t testing.TB) *gorm.DB {
	t.Helper()
	return New(t).DB()
}
