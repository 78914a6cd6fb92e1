package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/repository/mocks"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestAcquire_UsesServiceTTL(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LockRepository{}
	repo.On("Acquire", ctx, mock.MatchedBy(func(l lock.Lock) bool {
		return l.Code == "ABC_WXYZ-0001" &&
			l.Holder.SessionID == "s1" &&
			l.Holder.ExpiresAt.Equal(now.Add(5*time.Minute))
	}), now, false).Return(lock.AcquireResult{Status: lock.StatusAcquired}, nil)

	svc := lock.NewService(repo, 5*time.Minute, nil, lock.WithClock(clock))
	res, err := svc.Acquire(ctx, lock.AcquireRequest{Code: " ABC_WXYZ-0001 ", SessionID: "s1", UserID: "alice"})
	require.NoError(t, err)
	require.True(t, res.Held())
	repo.AssertExpectations(t)
}

func TestAcquire_ClampsTTL(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		serviceTTL time.Duration
		reqTTL     time.Duration
		want       time.Duration
	}{
		{"default", 0, 0, lock.DefaultTTL},
		{"below minimum", time.Second, 0, lock.MinTTL},
		{"request override", time.Hour, 30 * time.Second, 30 * time.Second},
		{"request below minimum", time.Hour, time.Millisecond, lock.MinTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.LockRepository{}
			repo.On("Acquire", ctx, mock.MatchedBy(func(l lock.Lock) bool {
				return l.Holder.ExpiresAt.Equal(now.Add(tt.want))
			}), now, false).Return(lock.AcquireResult{Status: lock.StatusAcquired}, nil)

			svc := lock.NewService(repo, tt.serviceTTL, nil, lock.WithClock(clock))
			_, err := svc.Acquire(ctx, lock.AcquireRequest{Code: "ABC_WXYZ-0001", SessionID: "s1", TTL: tt.reqTTL})
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestAcquire_PassesKeepLease(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LockRepository{}
	repo.On("Acquire", ctx, mock.Anything, now, true).Return(lock.AcquireResult{Status: lock.StatusRefreshed}, nil)

	svc := lock.NewService(repo, 0, nil, lock.WithClock(clock))
	res, err := svc.Acquire(ctx, lock.AcquireRequest{Code: "ABC_WXYZ-0001", SessionID: "s1", KeepLease: true})
	require.NoError(t, err)
	require.True(t, res.Held())
	repo.AssertExpectations(t)
}

func TestAcquire_Validation(t *testing.T) {
	svc := lock.NewService(&mocks.LockRepository{}, 0, nil)

	_, err := svc.Acquire(context.Background(), lock.AcquireRequest{Code: "ABC_WXYZ-0001"})
	require.ErrorIs(t, err, lock.ErrInvalidInput)

	_, err = svc.Acquire(context.Background(), lock.AcquireRequest{SessionID: "s1"})
	require.ErrorIs(t, err, lock.ErrInvalidInput)
}

func TestMustAcquire_HeldByOther(t *testing.T) {
	ctx := context.Background()
	holder := lock.Holder{SessionID: "s2", UserID: "bob", Host: "ws2", ExpiresAt: now.Add(time.Minute)}
	repo := &mocks.LockRepository{}
	repo.On("Acquire", ctx, mock.Anything, now, false).Return(lock.AcquireResult{
		Status: lock.StatusHeldByOther,
		Lock:   lock.Lock{Code: "ABC_WXYZ-0001", Holder: holder},
	}, nil)

	svc := lock.NewService(repo, 0, nil, lock.WithClock(clock))
	_, err := svc.MustAcquire(ctx, lock.AcquireRequest{Code: "ABC_WXYZ-0001", SessionID: "s1"})
	require.ErrorIs(t, err, lock.ErrHeldByOther)

	var held *lock.HeldError
	require.True(t, errors.As(err, &held))
	require.Equal(t, "bob", held.Holder.UserID)
	require.Contains(t, err.Error(), "bob@ws2")
}

func TestReleaseAll(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LockRepository{}
	repo.On("ReleaseAll", ctx, "s1").Return(2, nil)

	svc := lock.NewService(repo, 0, nil)
	n, err := svc.ReleaseAll(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = svc.ReleaseAll(ctx, " ")
	require.ErrorIs(t, err, lock.ErrInvalidInput)
}

func TestListActive_PassesClock(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LockRepository{}
	repo.On("ListActive", ctx, now).Return([]lock.Lock{{Code: "ABC_WXYZ-0001"}}, nil)

	svc := lock.NewService(repo, 0, nil, lock.WithClock(clock))
	locks, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, locks, 1)
}
