// Command seed-db applies migrations and loads the demo stock catalogue.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/cashier/db"
	"github.com/xenking/cashier/internal/domain/stock"
	"github.com/xenking/cashier/internal/storage/postgres"
)

type productJSON struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func main() {
	var (
		databaseURL string
		stockFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&stockFile, "stock-file", "", "path to a stock JSON file (default: embedded demo catalogue)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, stockFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, stockFile string) error {
	products, err := loadStock(stockFile)
	if err != nil {
		return errors.Wrap(err, "load stock")
	}

	slog.Info("running migrations")

	if err := postgres.RunMigrations(databaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewStockRepository(pool)

	slog.Info("upserting stock", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Code)
		}
		slog.Info("upserted product", slog.String("code", p.Code), slog.String("description", p.Description))
	}

	return nil
}

// loadStock reads path, or the embedded catalogue when path is empty.
func loadStock(path string) ([]stock.Product, error) {
	data := db.SeedStock
	if path != "" {
		slog.Info("reading stock file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read stock file")
		}
	}

	var rows []productJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "parse stock JSON")
	}

	products := make([]stock.Product, len(rows))
	for i, r := range rows {
		if r.Code == "" {
			return nil, errors.Errorf("entry %d has no code", i)
		}
		if r.Quantity < 0 || r.Price.IsNegative() {
			return nil, errors.Errorf("product %s has a negative price or quantity", r.Code)
		}
		products[i] = stock.Product{
			Code:        r.Code,
			Description: r.Description,
			Price:       r.Price,
			Available:   r.Quantity,
		}
	}
	return products, nil
}
