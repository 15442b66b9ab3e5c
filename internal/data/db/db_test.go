package db

import (
	"path/filepath"
	"testing"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

func TestPostgresDSN(t *testing.T) {
	cfg := Config{
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresName:     "sololev",
	}
	if got, want := cfg.PostgresDSN(), "postgres://u:p@db:5432/sololev?sslmode=disable"; got != want {
		t.Fatalf("dsn: got=%q want=%q", got, want)
	}
	cfg.PostgresSSLMode = "require"
	if got := cfg.PostgresDSN(); got != "postgres://u:p@db:5432/sololev?sslmode=require" {
		t.Fatalf("dsn sslmode: %q", got)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	conn, err := Open(Config{Driver: DriverSQLite, SQLitePath: path}, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialector")
	}
	if err := AutoMigrateAll(conn); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"user", "user_identity", "session", "oauth_state", "task", "day_completion"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	if !conn.Migrator().HasIndex(&types.DayCompletion{}, "idx_day_completion_user_date") {
		t.Fatalf("missing unique day completion index")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mongo"}, logger.NewNop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
