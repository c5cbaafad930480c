// Command catalog-ingest bulk-loads merchandise from gzip-compressed JSONL
// dumps into PostgreSQL. Supplier dumps overlap between exports, so ids are
// deduplicated across all files: the first occurrence of an id wins.
//
// Duplicate detection uses a bloom filter sized for large dumps. It is
// probabilistic: at the configured false positive rate roughly one in a
// thousand new ids may be skipped as a duplicate. seed-db remains the
// authoritative loader for the curated catalog.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/tramline/merch-shop/internal/domain/merch"
	"github.com/tramline/merch-shop/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz merchandise dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	catalog := postgres.NewCatalogRepository(pool)

	ing := &ingester{
		catalog: catalog,
		seen:    bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	slog.Info("ingesting dumps", slog.Int("files", len(files)))

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ing.ingestFile(ctx, f))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest summary",
		slog.Uint64("upserted", ing.upserted),
		slog.Uint64("duplicates", ing.duplicates),
		slog.Uint64("invalid", ing.invalid),
	)
	return nil
}

// ingester upserts deduplicated items. The bloom filter and counters are
// shared across file workers and guarded by mu.
type ingester struct {
	catalog *postgres.CatalogRepository

	mu         sync.Mutex
	seen       *bloom.BloomFilter
	upserted   uint64
	duplicates uint64
	invalid    uint64
}

// claim marks an id as seen and reports whether this caller was first.
func (g *ingester) claim(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen.TestString(id) {
		g.duplicates++
		return false
	}
	g.seen.AddString(id)
	return true
}

func (g *ingester) ingestFile(ctx context.Context, path string) func() error {
	return func() error {
		var count uint64

		err := streamGzLines(ctx, path, func(line []byte) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress", slog.String("file", path), slog.Uint64("lines", count))
			}

			item, err := merch.ParseItem(line)
			if err != nil {
				g.mu.Lock()
				g.invalid++
				g.mu.Unlock()
				slog.Warn("skipping invalid line",
					slog.String("file", path),
					slog.Uint64("line", count),
					slog.String("error", err.Error()),
				)
				return nil
			}

			if !g.claim(item.ID) {
				return nil
			}

			if err := g.catalog.Upsert(ctx, item); err != nil {
				return errors.Wrapf(err, "upsert %s", item.ID)
			}
			g.mu.Lock()
			g.upserted++
			g.mu.Unlock()
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("lines", count))
		return nil
	}
}

// streamGzLines opens a gzip-compressed file and calls fn for each
// non-empty line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
