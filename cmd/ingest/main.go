package main

import (
	"context"
	"credit-approval/internal/config"
	"credit-approval/internal/infrastructure/database/postgres"
	"credit-approval/internal/infrastructure/logging"
	"credit-approval/internal/ingest"
	"flag"
	"log/slog"
	"os"
	"time"
)

// Loads the historical customer and loan CSV exports into Postgres.
// Re-running is safe: rows are upserted by their source IDs.
func main() {
	customerFile := flag.String("customers", "", "path to the customer CSV export (overrides config)")
	loanFile := flag.String("loans", "", "path to the loan CSV export (overrides config)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall ingestion timeout")
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if *customerFile == "" {
		*customerFile = cfg.Ingest.CustomerFile
	}
	if *loanFile == "" {
		*loanFile = cfg.Ingest.LoanFile
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	ingestor := ingest.NewIngestor(customerRepo, loanRepo, logger)

	if err := loadFile(ctx, logger, *customerFile, "customers", func(f *os.File) (ingest.Result, error) {
		return ingestor.LoadCustomers(ctx, f)
	}); err != nil {
		os.Exit(1)
	}

	if err := loadFile(ctx, logger, *loanFile, "loans", func(f *os.File) (ingest.Result, error) {
		return ingestor.LoadLoans(ctx, f)
	}); err != nil {
		os.Exit(1)
	}

	logger.Info("Ingestion complete.")
}

func loadFile(ctx context.Context, logger *slog.Logger, path, kind string, load func(*os.File) (ingest.Result, error)) error {
	logCtx := logger.With("file", path, "kind", kind)

	f, err := os.Open(path)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open CSV file", slog.Any("error", err))
		return err
	}
	defer f.Close()

	res, err := load(f)
	if err != nil {
		logCtx.ErrorContext(ctx, "Ingestion failed", slog.Any("error", err), slog.Int("loaded", res.Loaded), slog.Int("skipped", res.Skipped))
		return err
	}

	logCtx.InfoContext(ctx, "File ingested", slog.Int("loaded", res.Loaded), slog.Int("skipped", res.Skipped))
	return nil
}
