package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"runtime"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Config struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	User     string `default:"qwell"`
	Password string `default:"password"`
	Database string `envconfig:"NAME" default:"qwell"`
	SSLMode  string `default:"disable"`
	// MaxOpenConns defaults to 4 x GOMAXPROCS when zero.
	MaxOpenConns int
}

func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Open builds the bun handle without touching the network.
func Open(cfg Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN())))

	db := bun.NewDB(sqldb, pgdialect.New())

	// BUNDEBUG=1 logs failed queries, BUNDEBUG=2 logs all of them.
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(false),
		bundebug.FromEnv("BUNDEBUG"),
	))

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 4 * runtime.GOMAXPROCS(0)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	return db
}

// New opens the database and verifies the connection.
func New(ctx context.Context, cfg Config) (*bun.DB, error) {
	db := Open(cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
