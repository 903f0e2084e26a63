package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/config"
	"github.com/rickgao/ticket-tracker/internal/database"
	"github.com/rickgao/ticket-tracker/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id           BIGSERIAL PRIMARY KEY,
	observed_at  TIMESTAMPTZ NOT NULL,
	cycle_id     UUID NOT NULL,
	listing_id   TEXT NOT NULL,
	section      TEXT NOT NULL,
	row_label    TEXT NOT NULL,
	base_price   NUMERIC NOT NULL,
	total_price  NUMERIC NOT NULL,
	price_change NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS price_history_listing_latest_idx
	ON price_history (listing_id, observed_at DESC, id DESC);
`

const latestQuery = `
	SELECT total_price FROM price_history
	WHERE listing_id = $1
	ORDER BY observed_at DESC, id DESC
	LIMIT 1
`

const insertQuery = `
	INSERT INTO price_history
		(observed_at, cycle_id, listing_id, section, row_label, base_price, total_price, price_change)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// PostgresStore keeps price history in the price_history table.
// Ties on observed_at are broken by the serial id, so the last insert wins.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to the database and prepares the schema.
func OpenPostgres(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, storageErr("open", err)
	}

	s, err := NewPostgresStore(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool. The store takes ownership of the
// pool and closes it on Close.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, storageErr("migrate", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// LatestPrice implements Store.
func (s *PostgresStore) LatestPrice(ctx context.Context, listingID string) (decimal.Decimal, bool, error) {
	return latestPrice(ctx, s.pool, listingID)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func latestPrice(ctx context.Context, q queryRower, listingID string) (decimal.Decimal, bool, error) {
	var n pgtype.Numeric
	err := q.QueryRow(ctx, latestQuery, listingID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, storageErr("latest", err)
	}

	d, err := fromNumeric(n)
	if err != nil {
		return decimal.Zero, false, storageErr("latest", err)
	}
	return d, true, nil
}

// Append implements Store. Lookups and inserts share one transaction.
func (s *PostgresStore) Append(ctx context.Context, records []model.HistoryRecord) ([]model.HistoryRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("append", fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out, err := withChanges(records, func(id string) (decimal.Decimal, bool, error) {
		return latestPrice(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, r := range out {
		batch.Queue(insertQuery,
			r.ObservedAt,
			pgtype.UUID{Bytes: [16]byte(r.CycleID), Valid: true},
			r.ListingID,
			r.Section,
			r.Row,
			toNumeric(r.BasePrice),
			toNumeric(r.TotalPrice),
			toNumeric(r.PriceChange),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range out {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, storageErr("append", fmt.Errorf("insert: %w", err))
		}
	}
	if err := results.Close(); err != nil {
		return nil, storageErr("append", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("append", fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("appended price history", "count", len(out))
	return out, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return storageErr("ping", s.pool.Ping(ctx))
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, errors.New("null price")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, errors.New("non-finite price")
	}
	if n.Int == nil {
		return decimal.NewFromBigInt(new(big.Int), n.Exp), nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
