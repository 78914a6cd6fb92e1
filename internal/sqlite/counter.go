package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
)

// CounterRepository implements counter.Repository for SQLite
type CounterRepository struct {
	db *DB
}

// NewCounterRepository creates a new CounterRepository
func NewCounterRepository(db *DB) *CounterRepository {
	return &CounterRepository{db: db}
}

type seqRow struct {
	part, assy int
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readSequence(ctx context.Context, q queryRower, key counter.SequenceKey) (seqRow, bool, error) {
	var row seqRow
	err := q.QueryRowContext(ctx,
		"SELECT next_part, next_assy FROM seq_counters WHERE mmm = ? AND gggg = ? AND vvv = ?",
		key.MMM, key.GGGG, key.VVV,
	).Scan(&row.part, &row.assy)
	if errors.Is(err, sql.ErrNoRows) {
		return seqRow{part: counter.PartFirst, assy: counter.AssyFirst}, false, nil
	}
	if err != nil {
		return seqRow{}, false, fmt.Errorf("failed to read sequence: %w", err)
	}
	return row, true, nil
}

func (s seqRow) next(t document.DocType) (int, error) {
	if t == document.DocTypeAssy {
		if s.assy < counter.AssyLast {
			return 0, counter.ErrSequenceExhausted
		}
		return s.assy, nil
	}
	if s.part > counter.PartLast {
		return 0, counter.ErrSequenceExhausted
	}
	return s.part, nil
}

// NextSequence reserves the next part or assembly number for key in one
// transaction. Parts count up from 1, assemblies down from 9999.
func (r *CounterRepository) NextSequence(ctx context.Context, key counter.SequenceKey, docType document.DocType) (int, error) {
	var seq int
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		row, exists, err := readSequence(ctx, tx, key)
		if err != nil {
			return err
		}
		if seq, err = row.next(docType); err != nil {
			return fmt.Errorf("%w: %s_%s %s", err, key.MMM, key.GGGG, docType)
		}
		if docType == document.DocTypeAssy {
			row.assy--
		} else {
			row.part++
		}
		if exists {
			_, err = tx.ExecContext(ctx,
				"UPDATE seq_counters SET next_part = ?, next_assy = ? WHERE mmm = ? AND gggg = ? AND vvv = ?",
				row.part, row.assy, key.MMM, key.GGGG, key.VVV)
		} else {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO seq_counters (mmm, gggg, vvv, next_part, next_assy) VALUES (?, ?, ?, ?, ?)",
				key.MMM, key.GGGG, key.VVV, row.part, row.assy)
		}
		if err != nil {
			return fmt.Errorf("failed to advance sequence: %w", err)
		}
		_, err = bumpTick(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// PeekSequence returns the number NextSequence would hand out next.
func (r *CounterRepository) PeekSequence(ctx context.Context, key counter.SequenceKey, docType document.DocType) (int, error) {
	row, _, err := readSequence(ctx, r.db, key)
	if err != nil {
		return 0, err
	}
	return row.next(docType)
}

// NextVersion reserves the next MACHINE or GROUP version number for key.
func (r *CounterRepository) NextVersion(ctx context.Context, key counter.VersionKey) (int, error) {
	var ver int
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO ver_counters (mmm, gggg, doc_type, next_ver) VALUES (?, ?, ?, ?)
			ON CONFLICT (mmm, gggg, doc_type) DO UPDATE SET next_ver = next_ver + 1
			RETURNING next_ver - 1`,
			key.MMM, key.GGGG, key.DocType, counter.VersionFirst+1,
		).Scan(&ver)
		if err != nil {
			return fmt.Errorf("failed to advance version: %w", err)
		}
		_, err = bumpTick(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return ver, nil
}

var _ counter.Repository = (*CounterRepository)(nil)
