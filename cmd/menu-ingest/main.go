// Command menu-ingest imports partner menu feeds into the database.
//
// Feeds are gzip-compressed JSON-lines files, one menu item per line, keyed
// by restaurant name. Partner feeds overlap heavily and repeat items across
// daily drops, so a bloom filter seeded from the existing menu_items rows
// screens out the common already-known case cheaply; only probable hits pay
// for an exact database check before the upsert.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/feastly/ordersvc/internal/postgres"
)

const (
	bloomCapacity = 5_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// feedLine is one menu item as partners publish it.
type feedLine struct {
	Restaurant  string          `json:"restaurant"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
}

// itemKey is the dedup key for a menu item within its restaurant.
func itemKey(restaurantID, name string) string {
	return restaurantID + "|" + name
}

// fileResult holds the deduplicated items parsed from a single feed file.
type fileResult struct {
	items map[string]feedItem
}

// feedItem is a parsed feed line resolved to a known restaurant.
type feedItem struct {
	restaurantID string
	line         feedLine
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing partner feed *.jsonl.gz files")
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
		slog.Error("menu ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz feed files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	restaurantIDs, err := loadRestaurantIDs(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "load restaurants")
	}

	filter, err := seedKnownItems(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed bloom filter")
	}

	slog.Info("parsing feed files", slog.Int("files", len(files)))

	results, err := parseFeeds(ctx, files, restaurantIDs)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	// Merge per-file results; later files win on overlapping keys so the
	// freshest drop takes precedence.
	merged := make(map[string]feedItem)
	for _, r := range results {
		for key, item := range r.items {
			merged[key] = item
		}
	}

	slog.Info("feed items merged", slog.Int("count", len(merged)))

	return writeItems(ctx, pool, filter, merged)
}

const listRestaurantIDsSQL = `SELECT id, name FROM restaurants`

// loadRestaurantIDs maps restaurant names (the key partners publish under) to
// internal restaurant IDs. Feed lines for unknown restaurants are skipped.
func loadRestaurantIDs(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, listRestaurantIDsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query restaurants")
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scan restaurant")
		}
		ids[name] = id
	}

	return ids, rows.Err()
}

const listItemKeysSQL = `SELECT restaurant_id, name FROM menu_items`

// seedKnownItems builds a bloom filter over every (restaurant, item) pair
// already in the database.
func seedKnownItems(ctx context.Context, pool *pgxpool.Pool) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	rows, err := pool.Query(ctx, listItemKeysSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items")
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var restaurantID, name string
		if err := rows.Scan(&restaurantID, &name); err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		filter.AddString(itemKey(restaurantID, name))
		count++
	}

	slog.Info("bloom filter seeded", slog.Int("known_items", count))

	return filter, rows.Err()
}

// parseFeeds streams every feed file concurrently, deduplicating within each
// file as it goes.
func parseFeeds(ctx context.Context, files []string, restaurantIDs map[string]string) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFeedFile(ctx, i, f, restaurantIDs, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseFeedFile(
	ctx context.Context,
	idx int,
	path string,
	restaurantIDs map[string]string,
	results []fileResult,
) func() error {
	return func() error {
		items := make(map[string]feedItem)
		var count, unknown uint64

		if err := streamGzFile(ctx, path, func(raw string) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", count),
				)
			}

			var line feedLine
			if err := json.Unmarshal([]byte(raw), &line); err != nil {
				return errors.Wrapf(err, "line %d", count)
			}

			id, ok := restaurantIDs[line.Restaurant]
			if !ok {
				unknown++
				return nil
			}

			items[itemKey(id, line.Name)] = feedItem{restaurantID: id, line: line}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "parse feed %s", path)
		}

		slog.Info("parse complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_lines", count),
			slog.Uint64("unknown_restaurant", unknown),
			slog.Int("items", len(items)),
		)

		results[idx] = fileResult{items: items}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
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
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

const itemExistsSQL = `SELECT EXISTS (
    SELECT 1 FROM menu_items WHERE restaurant_id = $1 AND name = $2
)`

const upsertItemSQL = `INSERT INTO menu_items (id, restaurant_id, name, description, price, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (restaurant_id, name) DO UPDATE SET
    description = EXCLUDED.description, price = EXCLUDED.price,
    status = EXCLUDED.status, updated_at = now()`

// writeItems upserts merged feed items. Items the bloom filter has never seen
// are new and inserted directly; probable hits are confirmed with an exact
// existence check and updated in place.
func writeItems(ctx context.Context, pool *pgxpool.Pool, filter *bloom.BloomFilter, items map[string]feedItem) error {
	slog.Info("writing menu items", slog.Int("count", len(items)))

	var written, updated int
	for key, item := range items {
		status := item.line.Status
		if status == "" {
			status = "ACTIVE"
		}

		known := filter.TestString(key)
		if known {
			// Bloom filters report false positives; confirm before
			// counting this as an update.
			if err := pool.QueryRow(ctx, itemExistsSQL, item.restaurantID, item.line.Name).Scan(&known); err != nil {
				return errors.Wrapf(err, "check item %s", key)
			}
		}

		if _, err := pool.Exec(ctx, upsertItemSQL,
			uuid.NewString(), item.restaurantID, item.line.Name,
			item.line.Description, item.line.Price, status,
		); err != nil {
			return errors.Wrapf(err, "upsert item %s", key)
		}

		if known {
			updated++
		} else {
			filter.AddString(key)
			written++
		}

		total := written + updated
		if total%1000 == 0 || total == len(items) {
			slog.Info("write progress", slog.Int("written", total), slog.Int("total", len(items)))
		}
	}

	slog.Info("write complete", slog.Int("new", written), slog.Int("updated", updated))

	return nil
}
