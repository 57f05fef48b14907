// Command migrate applies, rolls back or reports the qwell schema
// migrations against the database named by the DB_* environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/qlog"
)

func main() {
	down := flag.Bool("down", false, "roll back the last migration group instead of migrating")
	status := flag.Bool("status", false, "list applied and pending migrations and exit")
	flag.Parse()

	logger := qlog.NewLogger(qlog.ParseLevel(os.Getenv("LOG_LEVEL")), os.Stdout)
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	if err := run(context.Background(), logger, *down, *status); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *qlog.Logger, down, status bool) error {
	var cfg db.Config
	if err := envconfig.Process("DB", &cfg); err != nil {
		return fmt.Errorf("process env vars: %w", err)
	}

	database, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	switch {
	case status:
		st, err := db.Status(ctx, database)
		if err != nil {
			return err
		}
		for _, name := range st.Applied {
			fmt.Printf("applied  %s\n", name)
		}
		for _, name := range st.Pending {
			fmt.Printf("pending  %s\n", name)
		}
		return nil
	case down:
		return db.Rollback(ctx, database, logger)
	default:
		return db.Migrate(ctx, database, logger)
	}
}
