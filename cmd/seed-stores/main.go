// Command seed-stores loads the retailer catalog into the stores and
// shipping_rules tables. It applies pending migrations first and is safe
// to run repeatedly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckcelina/my-wishlist-sub002/internal/catalog"
	"github.com/ckcelina/my-wishlist-sub002/internal/repository/postgres"
	"github.com/ckcelina/my-wishlist-sub002/migrations"
	pkgconfig "github.com/ckcelina/my-wishlist-sub002/pkg/config"
	"github.com/ckcelina/my-wishlist-sub002/pkg/database"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

type seedConfig struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	CatalogFile  string `env:"CATALOG_FILE"`
	DatabaseURL  string `env:"DATABASE_URL"`
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"wishlist"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"wishlist_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"wishlist"`
	PostgresSSL  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("seed-stores", cfg.LogLevel)

	c, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		URL:      cfg.DatabaseURL,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 2,
		MinConns: 1,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	seeder := catalog.NewSeeder(postgres.NewStoreRepository(pool), log)
	if _, err := seeder.Seed(ctx, c); err != nil {
		return err
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return catalog.Parse(data)
}
