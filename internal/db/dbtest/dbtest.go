// Package dbtest connects repository tests to a real PostgreSQL instance.
//
// Tests run against the database named by the DB_*_TEST variables. When
// DB_HOST_TEST is unset every database test is skipped.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/config"
	"github.com/vasiliy-maslov/spud-kitchen/internal/db"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Config reads the test database settings. ok is false without DB_HOST_TEST.
func Config() (cfg config.PostgresConfig, ok bool) {
	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		return config.PostgresConfig{}, false
	}
	return config.PostgresConfig{
		Host:            host,
		Port:            getEnv("DB_PORT_TEST", "5432"),
		User:            getEnv("DB_USER_TEST", "postgres"),
		Password:        getEnv("DB_PASSWORD_TEST", "123456"),
		DBName:          getEnv("DB_NAME_TEST", "spud_kitchen_test"),
		SSLMode:         getEnv("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
		MigrationsPath:  migrationsPath(),
	}, true
}

// Open is meant for TestMain. It returns nil when no test database is
// configured and exits the test binary when the configured one is unreachable.
func Open() *db.Postgres {
	cfg, ok := Config()
	if !ok {
		log.Info().Msg("DB_HOST_TEST is not set, database tests will be skipped")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("db_host", cfg.Host).Str("db_port", cfg.Port).Msg("Failed to connect to test database")
	}
	log.Info().Msg("Test Database connection established.")
	return pg
}

// Pool returns pool or skips the test when it is nil.
func Pool(t *testing.T, pool *pgxpool.Pool) *pgxpool.Pool {
	t.Helper()
	if pool == nil {
		t.Skip("DB_HOST_TEST is not set")
	}
	return pool
}

// Truncate empties tables now and again when the test finishes.
func Truncate(t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()

	truncate := func() {
		query := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " CASCADE"
		if _, err := pool.Exec(context.Background(), query); err != nil {
			t.Fatalf("failed to truncate %v: %v", tables, err)
		}
	}
	truncate()
	t.Cleanup(truncate)
}
