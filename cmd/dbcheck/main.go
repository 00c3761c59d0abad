// Command dbcheck connects with the API's configuration, ensures the schema
// exists and prints row counts for the application tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"foodshare/internal/config"
	"foodshare/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var tables = []string{"profiles", "listings", "requests"}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Database.EnsureSchema = true

	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return report(ctx, pool)
}

func report(ctx context.Context, pool *pgxpool.Pool) error {
	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("failed to read current database: %w", err)
	}
	fmt.Printf("Connected to database: %s\n", dbName)

	for _, table := range tables {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		fmt.Printf("  %-10s %d\n", table, count)
	}

	var pending int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM requests WHERE status = 'Pending'").Scan(&pending); err != nil {
		return fmt.Errorf("failed to count pending requests: %w", err)
	}
	fmt.Printf("  pending    %d\n", pending)

	return nil
}
