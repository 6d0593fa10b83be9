package dbtest

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"

	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/migrate"
)

// PostgresURLEnv names the database used by postgres-tagged tests.
const PostgresURLEnv = "REFURBMART_TEST_DATABASE_URL"

// NewPostgres returns a client bound to a throwaway schema on the database
// named by PostgresURLEnv, skipping the test when it is unset. Unlike New the
// pool is not capped, so concurrent transactions contend on row locks.
func NewPostgres(t testing.TB) *db.Client {
	t.Helper()

	base := strings.TrimSpace(os.Getenv(PostgresURLEnv))
	if base == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := db.Open(postgres.Open(base))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", schema)).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	adminSQL, err := admin.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = admin.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schema)).Error
		_ = adminSQL.Close()
	})

	dsn, err := withSearchPath(base, schema)
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	conn, err := db.Open(postgres.Open(dsn))
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(migrate.Models...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db.NewFromGorm(conn)
}

// withSearchPath accepts both URL and key=value DSNs.
func withSearchPath(dsn, schema string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return dsn + " search_path=" + schema, nil
}
