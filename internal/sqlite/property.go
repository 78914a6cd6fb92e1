package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

// PropertyRepository implements document.PropertyRepository for SQLite
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new PropertyRepository
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Set upserts one property value.
func (r *PropertyRepository) Set(ctx context.Context, code, name, value string) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doc_custom_values (code, prop_name, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (code, prop_name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			code, name, value, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to set property: %w", err)
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// List returns the property values of code.
func (r *PropertyRepository) List(ctx context.Context, code string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT prop_name, value FROM doc_custom_values WHERE code = ? ORDER BY prop_name", code)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props[name] = value
	}
	return props, rows.Err()
}

// DeleteProperty removes name from every document.
func (r *PropertyRepository) DeleteProperty(ctx context.Context, name string) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM doc_custom_values WHERE prop_name = ?", name); err != nil {
			return fmt.Errorf("failed to delete property: %w", err)
		}
		var err error
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

var _ document.PropertyRepository = (*PropertyRepository)(nil)
