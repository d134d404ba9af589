/*
Package history implements the historical price store.

Two backends are provided: SQLite (modernc.org/sqlite, pure Go) for single-node
deployments and PostgreSQL (pgx) for shared datasets. Both keep the training
pipeline's table layout:

	clothing_items(type, color, brand, material, style, state, price)

Every lookup checks out its own connection and returns it before the call ends,
on success and error paths alike. Stored values are lower-case; callers pass
normalized descriptors.
*/
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/pricelens/backend/internal/domain"
)

const selectMatchingSQLite = `
	SELECT price FROM clothing_items
	WHERE type = ? AND color = ? AND brand = ? AND material = ? AND style = ? AND state = ?`

// SQLiteStore reads historical prices from a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path. The file is created on first write.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// FindMatchingPrices returns the price of every row equal to d on all six fields.
func (s *SQLiteStore) FindMatchingPrices(ctx context.Context, d domain.ItemDescriptor) (prices []decimal.Decimal, err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to release connection: %w", cerr)
		}
	}()

	rows, err := conn.QueryContext(ctx, selectMatchingSQLite,
		d.Type, d.Color, d.Brand, d.Material, d.Style, d.Condition)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var price decimal.Decimal
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}

	return prices, nil
}

// EnsureSchema creates the items table and its lookup index when missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS clothing_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			color TEXT NOT NULL,
			brand TEXT NOT NULL,
			material TEXT NOT NULL,
			style TEXT NOT NULL,
			state TEXT NOT NULL,
			price REAL NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create clothing_items table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_clothing_items_lookup
		ON clothing_items(type, color, brand, material, style, state)
	`); err != nil {
		return fmt.Errorf("failed to create lookup index: %w", err)
	}

	return nil
}

// Import inserts records in a single transaction and returns the number written.
func (s *SQLiteStore) Import(ctx context.Context, records []domain.HistoricalRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clothing_items (type, color, brand, material, style, state, price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		d := r.Descriptor.Normalized()
		if _, err := stmt.ExecContext(ctx, d.Type, d.Color, d.Brand, d.Material, d.Style, d.Condition,
			r.Price.InexactFloat64()); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(records), nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clothing_items").Scan(&n); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
