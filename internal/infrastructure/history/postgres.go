package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pricelens/backend/internal/domain"
)

const selectMatchingPostgres = `
	SELECT price::text FROM clothing_items
	WHERE type = $1 AND color = $2 AND brand = $3 AND material = $4 AND style = $5 AND state = $6`

// PostgresStore reads historical prices from PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a lazily connecting pool. No connection is opened until
// the first query.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// FindMatchingPrices acquires a connection, runs the exact-match query and releases it.
func (s *PostgresStore) FindMatchingPrices(ctx context.Context, d domain.ItemDescriptor) ([]decimal.Decimal, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, selectMatchingPostgres,
		d.Type, d.Color, d.Brand, d.Material, d.Style, d.Condition)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		price, err := decimal.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", text, err)
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	return prices, nil
}

// EnsureSchema creates the items table and its lookup index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clothing_items (
			id BIGSERIAL PRIMARY KEY,
			type TEXT NOT NULL,
			color TEXT NOT NULL,
			brand TEXT NOT NULL,
			material TEXT NOT NULL,
			style TEXT NOT NULL,
			state TEXT NOT NULL,
			price NUMERIC(12, 2) NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create clothing_items table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_clothing_items_lookup
		ON clothing_items(type, color, brand, material, style, state)
	`); err != nil {
		return fmt.Errorf("failed to create lookup index: %w", err)
	}
	return nil
}

// Import bulk-loads records with COPY.
func (s *PostgresStore) Import(ctx context.Context, records []domain.HistoricalRecord) (int, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		d := r.Descriptor.Normalized()
		rows = append(rows, []any{d.Type, d.Color, d.Brand, d.Material, d.Style, d.Condition, numeric(r.Price)})
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"clothing_items"},
		[]string{"type", "color", "brand", "material", "style", "state", "price"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy records: %w", err)
	}
	return int(n), nil
}

// numeric converts a price to pgtype.Numeric without passing through float64
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// Count returns the number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clothing_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
