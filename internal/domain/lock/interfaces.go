package lock

import (
	"context"
	"time"
)

// Repository stores locks. Acquire must purge rows expired at now and
// decide the outcome inside one write transaction. With keepLease, a lock
// already held by l's session keeps its expiry, extended only as far as
// now+MinTTL.
type Repository interface {
	Acquire(ctx context.Context, l Lock, now time.Time, keepLease bool) (AcquireResult, error)
	Release(ctx context.Context, code, sessionID string) (bool, error)
	ReleaseAll(ctx context.Context, sessionID string) (int, error)
	ListActive(ctx context.Context, now time.Time) ([]Lock, error)
}
