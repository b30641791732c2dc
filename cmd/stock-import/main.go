// Command stock-import loads gzipped CSV stock files into the stock table.
// Each line is "code,description,price,quantity"; a code listed in several
// files is stored once with the quantities summed.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/cashier/internal/storage/postgres"
)

const batchSize = 500

func main() {
	var (
		pattern     string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&pattern, "files", "data/stock*.csv.gz", "glob matching the gzipped CSV stock files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and merge only, do not write to the database")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, pattern, databaseURL, dryRun); err != nil {
		slog.Error("stock import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("stock import completed successfully")
}

func run(ctx context.Context, pattern, databaseURL string, dryRun bool) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrapf(err, "glob %q", pattern)
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %q", pattern)
	}

	slog.Info("parsing stock files", slog.Int("files", len(files)))

	parsed, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse stock files")
	}

	products, dups := merge(parsed)
	slog.Info("merged stock",
		slog.Int("products", len(products)),
		slog.Int("cross_file_duplicates", dups),
	)

	if dryRun || len(products) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	if err := postgres.RunMigrations(databaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewStockRepository(pool)
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		if err := repo.UpsertBatch(ctx, products[start:end]); err != nil {
			return errors.Wrap(err, "write stock")
		}
		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(products)))
	}

	return nil
}
