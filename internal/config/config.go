package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
	"github.com/vasiliy-maslov/spud-kitchen/internal/pricing"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type Config struct {
	App struct {
		Port          string
		LogLevel      string
		StorageDriver string
	}
	Postgres PostgresConfig
	Pricing  pricing.Policy
	Loyalty  struct {
		CompletionistCategory string
		LeaderboardSize       int
	}
	Menu struct {
		// SeedPath пустой: используется встроенный seed.
		SeedPath string
	}
}

// Load reads an optional .env file at path and then the process environment.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "debug")
	cfg.App.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory))
	if cfg.App.StorageDriver != DriverMemory && cfg.App.StorageDriver != DriverPostgres {
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverMemory, DriverPostgres, cfg.App.StorageDriver)
	}

	var err error
	if cfg.Postgres, err = loadPostgres(cfg.App.StorageDriver == DriverPostgres); err != nil {
		return nil, err
	}

	tax, err := decimal.NewFromString(getEnv("TAX_RATE_PERCENT", "8"))
	if err != nil || tax.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE_PERCENT must be a non-negative number: %q", os.Getenv("TAX_RATE_PERCENT"))
	}
	fee, err := money.Parse(getEnv("DELIVERY_FEE", "5.00"))
	if err != nil || fee < 0 {
		return nil, fmt.Errorf("DELIVERY_FEE must be a non-negative amount: %q", os.Getenv("DELIVERY_FEE"))
	}
	cfg.Pricing = pricing.Policy{TaxRatePercent: tax, DeliveryFee: fee}

	cfg.Loyalty.CompletionistCategory = getEnv("COMPLETIONIST_CATEGORY", "loaded-fries")
	if cfg.Loyalty.LeaderboardSize, err = strconv.Atoi(getEnv("LEADERBOARD_SIZE", "10")); err != nil || cfg.Loyalty.LeaderboardSize <= 0 {
		return nil, fmt.Errorf("LEADERBOARD_SIZE must be a positive integer: %q", os.Getenv("LEADERBOARD_SIZE"))
	}

	cfg.Menu.SeedPath = os.Getenv("MENU_SEED_PATH")

	return cfg, nil
}

func loadPostgres(required bool) (PostgresConfig, error) {
	pg := PostgresConfig{
		Host:           os.Getenv("DB_HOST"),
		Port:           getEnv("DB_PORT", "5432"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
	}

	if required {
		for _, f := range []struct{ name, value string }{
			{"DB_HOST", pg.Host},
			{"DB_USER", pg.User},
			{"DB_PASSWORD", pg.Password},
			{"DB_NAME", pg.DBName},
		} {
			if f.value == "" {
				return PostgresConfig{}, fmt.Errorf("%s is required when STORAGE_DRIVER=postgres", f.name)
			}
		}
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns <= 0 {
		return PostgresConfig{}, fmt.Errorf("DB_MAX_CONNS must be a positive integer: %q", os.Getenv("DB_MAX_CONNS"))
	}
	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "2"), 10, 32)
	if err != nil || minConns < 0 || minConns > maxConns {
		return PostgresConfig{}, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS: %q", os.Getenv("DB_MIN_CONNS"))
	}
	lifetime, err := time.ParseDuration(getEnv("DB_MAX_CONN_LIFETIME", "30m"))
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("DB_MAX_CONN_LIFETIME must be a duration: %w", err)
	}

	pg.MaxConns = int32(maxConns)
	pg.MinConns = int32(minConns)
	pg.MaxConnLifetime = lifetime
	return pg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
