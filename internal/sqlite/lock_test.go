package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/domain/lock"
)

func newLock(code, session string, now time.Time, ttl time.Duration) lock.Lock {
	return lock.Lock{
		Code:       code,
		Holder:     lock.Holder{SessionID: session, UserID: "user-" + session, Host: "host", ExpiresAt: now.Add(ttl)},
		AcquiredAt: now,
		UpdatedAt:  now,
	}
}

func TestLockRepository_AcquireRefreshContend(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	res, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s1", now, time.Minute), now, false)
	require.NoError(t, err)
	require.Equal(t, lock.StatusAcquired, res.Status)

	later := now.Add(30 * time.Second)
	res, err = repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s1", later, time.Minute), later, false)
	require.NoError(t, err)
	require.Equal(t, lock.StatusRefreshed, res.Status)
	require.True(t, res.Lock.AcquiredAt.Equal(now))
	require.True(t, res.Lock.Holder.ExpiresAt.Equal(later.Add(time.Minute)))

	res, err = repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s2", later, time.Minute), later, false)
	require.NoError(t, err)
	require.Equal(t, lock.StatusHeldByOther, res.Status)
	require.False(t, res.Held())
	require.Equal(t, "s1", res.Lock.Holder.SessionID)
	require.Equal(t, "user-s1", res.Lock.Holder.UserID)
}

func TestLockRepository_ExpiredLockIsTakenOver(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s1", now, 10*time.Second), now, false)
	require.NoError(t, err)

	expired := now.Add(10 * time.Second)
	res, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s2", expired, time.Minute), expired, false)
	require.NoError(t, err)
	require.Equal(t, lock.StatusAcquired, res.Status)

	locks, err := repo.ListActive(ctx, expired)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	require.Equal(t, "s2", locks[0].Holder.SessionID)
}

func TestLockRepository_Release(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)
	now := time.Now().UTC()

	for _, code := range []string{"ABC_WXYZ-0001", "ABC_WXYZ-0002"} {
		_, err := repo.Acquire(ctx, newLock(code, "s1", now, time.Minute), now, false)
		require.NoError(t, err)
	}
	_, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0003", "s2", now, time.Minute), now, false)
	require.NoError(t, err)

	ok, err := repo.Release(ctx, "ABC_WXYZ-0001", "s2")
	require.NoError(t, err)
	require.False(t, ok, "only the owner releases")

	ok, err = repo.Release(ctx, "ABC_WXYZ-0001", "s1")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := repo.ReleaseAll(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	locks, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	require.Equal(t, "ABC_WXYZ-0003", locks[0].Code)
}

func TestLockRepository_KeepLease(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// An explicit two-hour lease survives a refresh that asks to keep it.
	_, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s1", now, 2*time.Hour), now, false)
	require.NoError(t, err)
	later := now.Add(time.Minute)
	res, err := repo.Acquire(ctx, newLock("ABC_WXYZ-0001", "s1", later, 20*time.Minute), later, true)
	require.NoError(t, err)
	require.Equal(t, lock.StatusRefreshed, res.Status)
	require.True(t, res.Lock.Holder.ExpiresAt.Equal(now.Add(2*time.Hour)))

	locks, err := repo.ListActive(ctx, later)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	require.True(t, locks[0].Holder.ExpiresAt.Equal(now.Add(2*time.Hour)))

	// A lease about to run out is topped up to the minimum only.
	_, err = repo.Acquire(ctx, newLock("ABC_WXYZ-0002", "s1", now, 15*time.Second), now, false)
	require.NoError(t, err)
	soon := now.Add(10 * time.Second)
	res, err = repo.Acquire(ctx, newLock("ABC_WXYZ-0002", "s1", soon, 20*time.Minute), soon, true)
	require.NoError(t, err)
	require.True(t, res.Lock.Holder.ExpiresAt.Equal(soon.Add(lock.MinTTL)))

	// A fresh lock taken with keepLease gets the requested expiry.
	res, err = repo.Acquire(ctx, newLock("ABC_WXYZ-0003", "s1", now, 20*time.Minute), now, true)
	require.NoError(t, err)
	require.Equal(t, lock.StatusAcquired, res.Status)
	require.True(t, res.Lock.Holder.ExpiresAt.Equal(now.Add(20*time.Minute)))
}
