package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_log (
			created_at, workspace_id, session_id, user_id, user_display, host,
			action, code, status, message, details_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.CreatedAt,
		entry.WorkspaceID,
		entry.SessionID,
		entry.UserID,
		entry.UserDisplay,
		entry.Host,
		entry.Action,
		entry.Code,
		entry.Status,
		entry.Message,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT
			id, created_at, workspace_id, session_id, user_id, user_display, host,
			action, code, status, message, details_json
		FROM activity_log
	`

	var args []any
	var conditions []string

	if opts.Code != "" {
		conditions = append(conditions, "code = ?")
		args = append(args, opts.Code)
	}
	if opts.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if opts.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, opts.Action)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var entry activity.ActivityEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CreatedAt,
			&entry.WorkspaceID,
			&entry.SessionID,
			&entry.UserID,
			&entry.UserDisplay,
			&entry.Host,
			&entry.Action,
			&entry.Code,
			&entry.Status,
			&entry.Message,
			&entry.Details,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}

var _ activity.Repository = (*ActivityRepository)(nil)
