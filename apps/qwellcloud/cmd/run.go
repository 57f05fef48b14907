package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/qapi"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qapi/routes"
	"github.com/quatton/qwell/pkg/qapi/services"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the API server",
	Long: `Connects to Postgres, applies pending migrations and serves the API.

Valkey and S3 are optional: without VALKEY_ADDR or S3_ENDPOINT the server
falls back to in-process stores, which is only suitable for development.`,
	Run: run,
}

var skipMigrate bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
}

func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	cfg.Print(log.Printf)

	logger := qlog.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	database, err := db.New(ctx, cfg.DBConfig())
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()

	if !skipMigrate {
		if err := db.Migrate(ctx, database, logger); err != nil {
			logger.Fatalf("failed to migrate: %v", err)
		}
	}

	backends, err := services.OpenBackends(ctx, cfg, db.NewBunStore(database), logger)
	if err != nil {
		logger.Fatalf("failed to initialize backends: %v", err)
	}

	metrics := qmetrics.New()
	svcs, err := services.NewServices(cfg, backends, metrics, logger)
	if err != nil {
		logger.Fatalf("failed to initialize services: %v", err)
	}

	api := qapi.NewApi(metrics.Handler())
	routes.RegisterAPI(api.Api, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 API starting on %s\n", addr)
	log.Printf("📚 OpenAPI docs: %s/docs\n", cfg.BaseURL)
	log.Printf("📄 OpenAPI spec: %s/openapi.json\n", cfg.BaseURL)
	log.Printf("📈 Metrics: %s/metrics\n", cfg.BaseURL)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
