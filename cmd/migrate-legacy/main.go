// Command migrate-legacy reconstructs process steps and transitions for
// orders created under the legacy single-status model. Run once after
// deploying the step model; -verify-only reports inconsistencies without
// writing anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/mitrajaya/garment-tracker/internal/config"
	"github.com/mitrajaya/garment-tracker/internal/migration"
	"github.com/mitrajaya/garment-tracker/migrations"
	"github.com/mitrajaya/garment-tracker/pkg/database"
	"github.com/mitrajaya/garment-tracker/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	verifyOnly := flag.Bool("verify-only", false, "only verify, do not migrate")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	ctx := context.Background()
	backfill := migration.NewBackfill(db, logger)

	if !*verifyOnly {
		report, err := backfill.Run(ctx)
		if err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
		fmt.Printf("Migrated %d of %d legacy orders (%d skipped, %d failed)\n",
			report.Migrated, report.Total, report.Skipped, report.Failed)
	}

	verify, err := backfill.Verify(ctx)
	if err != nil {
		logger.Fatal("Verification failed", zap.Error(err))
	}
	fmt.Printf("Orders without process steps: %d\n", len(verify.OrdersWithoutSteps))
	fmt.Printf("Orders without transitions: %d\n", len(verify.OrdersWithoutTransitions))
	for _, n := range verify.OrdersWithoutSteps {
		fmt.Printf("  missing steps: %s\n", n)
	}
	for _, n := range verify.OrdersWithoutTransitions {
		fmt.Printf("  missing transitions: %s\n", n)
	}
}
