package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

const defaultNoteLimit = 100

// NoteRepository implements document.NoteRepository for SQLite. Notes are
// append-only; the schema rejects updates and deletes.
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Append inserts a state note and returns the new tick.
func (r *NoteRepository) Append(ctx context.Context, note *document.StateNote) (int64, error) {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO document_state_notes (code, created_at, event_type, from_state, to_state, note, rev_before, rev_after)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			note.Code, note.CreatedAt, note.EventType, note.FromState, note.ToState, note.Note, note.RevBefore, note.RevAfter,
		)
		if err != nil {
			return fmt.Errorf("failed to append state note: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			note.ID = id
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// List returns the notes of code, newest first.
func (r *NoteRepository) List(ctx context.Context, code string, limit int) ([]document.StateNote, error) {
	if limit <= 0 {
		limit = defaultNoteLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, created_at, event_type, from_state, to_state, note, rev_before, rev_after
		FROM document_state_notes
		WHERE code = ?
		ORDER BY id DESC
		LIMIT ?`,
		code, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list state notes: %w", err)
	}
	defer rows.Close()

	var notes []document.StateNote
	for rows.Next() {
		var n document.StateNote
		if err := rows.Scan(&n.ID, &n.Code, &n.CreatedAt, &n.EventType, &n.FromState, &n.ToState, &n.Note, &n.RevBefore, &n.RevAfter); err != nil {
			return nil, fmt.Errorf("failed to scan state note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating state notes: %w", err)
	}
	return notes, nil
}

var _ document.NoteRepository = (*NoteRepository)(nil)
