package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/lock"
)

// LockRepository implements lock.Repository for SQLite
type LockRepository struct {
	db *DB
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(db *DB) *LockRepository {
	return &LockRepository{db: db}
}

func purgeExpired(ctx context.Context, tx *sql.Tx, now time.Time) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM document_locks WHERE expires_at <= ?", toMillis(now)); err != nil {
		return fmt.Errorf("failed to purge expired locks: %w", err)
	}
	return nil
}

func scanLock(row scanner) (lock.Lock, error) {
	var l lock.Lock
	var acquired, updated, expires int64
	if err := row.Scan(&l.Code, &l.Holder.SessionID, &l.Holder.UserID, &l.Holder.Host, &acquired, &updated, &expires); err != nil {
		return lock.Lock{}, err
	}
	l.AcquiredAt = fromMillis(acquired)
	l.UpdatedAt = fromMillis(updated)
	l.Holder.ExpiresAt = fromMillis(expires)
	return l, nil
}

const lockColumns = "code, owner_session, owner_user, owner_host, acquired_at, updated_at, expires_at"

// Acquire purges expired locks, then inserts, refreshes or reports the
// current holder of l.Code, all in one transaction.
func (r *LockRepository) Acquire(ctx context.Context, l lock.Lock, now time.Time, keepLease bool) (lock.AcquireResult, error) {
	var res lock.AcquireResult
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := purgeExpired(ctx, tx, now); err != nil {
			return err
		}
		cur, err := scanLock(tx.QueryRowContext(ctx, "SELECT "+lockColumns+" FROM document_locks WHERE code = ?", l.Code))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				"INSERT INTO document_locks ("+lockColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				l.Code, l.Holder.SessionID, l.Holder.UserID, l.Holder.Host,
				toMillis(l.AcquiredAt), toMillis(l.UpdatedAt), toMillis(l.Holder.ExpiresAt))
			if err != nil {
				return fmt.Errorf("failed to insert lock: %w", err)
			}
			res = lock.AcquireResult{Status: lock.StatusAcquired, Lock: l}
			return nil
		case err != nil:
			return fmt.Errorf("failed to read lock: %w", err)
		}

		if cur.Holder.SessionID != l.Holder.SessionID {
			res = lock.AcquireResult{Status: lock.StatusHeldByOther, Lock: cur}
			return nil
		}
		if keepLease {
			l.Holder.ExpiresAt = cur.Holder.ExpiresAt
			if floor := now.Add(lock.MinTTL); l.Holder.ExpiresAt.Before(floor) {
				l.Holder.ExpiresAt = floor
			}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE document_locks SET owner_user = ?, owner_host = ?, updated_at = ?, expires_at = ?
			WHERE code = ?`,
			l.Holder.UserID, l.Holder.Host, toMillis(l.UpdatedAt), toMillis(l.Holder.ExpiresAt), l.Code)
		if err != nil {
			return fmt.Errorf("failed to refresh lock: %w", err)
		}
		l.AcquiredAt = cur.AcquiredAt
		res = lock.AcquireResult{Status: lock.StatusRefreshed, Lock: l}
		return nil
	})
	return res, err
}

// Release deletes the lock on code if sessionID owns it.
func (r *LockRepository) Release(ctx context.Context, code, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM document_locks WHERE code = ? AND owner_session = ?", code, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to release lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseAll deletes every lock owned by sessionID.
func (r *LockRepository) ReleaseAll(ctx context.Context, sessionID string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM document_locks WHERE owner_session = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to release session locks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListActive purges expired locks and returns the rest ordered by code.
func (r *LockRepository) ListActive(ctx context.Context, now time.Time) ([]lock.Lock, error) {
	var locks []lock.Lock
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := purgeExpired(ctx, tx, now); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, "SELECT "+lockColumns+" FROM document_locks ORDER BY code")
		if err != nil {
			return fmt.Errorf("failed to list locks: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			l, err := scanLock(rows)
			if err != nil {
				return fmt.Errorf("failed to scan lock: %w", err)
			}
			locks = append(locks, l)
		}
		return rows.Err()
	})
	return locks, err
}

var _ lock.Repository = (*LockRepository)(nil)
