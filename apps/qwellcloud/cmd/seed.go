package cmd

import (
	"context"
	"log"
	"os"

	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the food catalog",
	Long:  `Upserts the food catalog from a YAML (or JSON/TOML) file into the foods table.`,
	Run:   seed,
}

var seedFile string

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "data/foods.yaml", "Food catalog file")
}

func seed(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	logger := qlog.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	foods, err := db.LoadFoods(seedFile)
	if err != nil {
		logger.Fatalf("failed to load catalog: %v", err)
	}

	database, err := db.New(ctx, cfg.DBConfig())
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	store := db.NewBunStore(database)
	if err := store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		return r.UpsertFoods(ctx, foods)
	}); err != nil {
		logger.Fatalf("failed to seed foods: %v", err)
	}
	logger.Info("food catalog loaded", "file", seedFile, "foods", len(foods))
}
