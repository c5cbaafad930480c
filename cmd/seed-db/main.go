// Command seed-db loads the merchandise catalog into PostgreSQL. With no
// file flag it seeds the embedded demo catalog.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/tramline/merch-shop/db"
	"github.com/tramline/merch-shop/internal/domain/merch"
	"github.com/tramline/merch-shop/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		itemsFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "", "path to a merchandise JSON file (default: embedded demo catalog)")
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

	if err := run(ctx, databaseURL, itemsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile string) error {
	data := db.SeedMerchandise
	if itemsFile != "" {
		slog.Info("reading merchandise file", slog.String("path", itemsFile))

		var err error
		data, err = os.ReadFile(itemsFile)
		if err != nil {
			return errors.Wrap(err, "read merchandise file")
		}
	}

	items, err := merch.ParseItems(data)
	if err != nil {
		return errors.Wrap(err, "parse merchandise")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog := postgres.NewCatalogRepository(pool)

	slog.Info("upserting merchandise", slog.Int("count", len(items)))

	for _, m := range items {
		if err := catalog.Upsert(ctx, m); err != nil {
			return errors.Wrapf(err, "upsert %s", m.ID)
		}

		slog.Info("upserted item", slog.String("id", m.ID), slog.String("name", m.Name))
	}

	return nil
}
