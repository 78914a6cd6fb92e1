package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
)

func TestCounterRepository_PartsUpAssembliesDown(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCounterRepository(db)
	key := counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ"}

	peek, err := repo.PeekSequence(ctx, key, document.DocTypePart)
	require.NoError(t, err)
	require.Equal(t, 1, peek)

	for want := 1; want <= 3; want++ {
		got, err := repo.NextSequence(ctx, key, document.DocTypePart)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	for _, want := range []int{9999, 9998} {
		got, err := repo.NextSequence(ctx, key, document.DocTypeAssy)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	peek, err = repo.PeekSequence(ctx, key, document.DocTypePart)
	require.NoError(t, err)
	require.Equal(t, 4, peek)
	got, err := repo.NextSequence(ctx, key, document.DocTypePart)
	require.NoError(t, err)
	require.Equal(t, peek, got)

	// A variant has its own counter.
	got, err = repo.NextSequence(ctx, counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ", VVV: "V01"}, document.DocTypePart)
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestCounterRepository_Exhausted(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCounterRepository(db)
	key := counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ"}

	_, err := db.ExecContext(ctx,
		"INSERT INTO seq_counters (mmm, gggg, vvv, next_part, next_assy) VALUES ('ABC', 'WXYZ', '', 10000, 0)")
	require.NoError(t, err)

	_, err = repo.NextSequence(ctx, key, document.DocTypePart)
	require.ErrorIs(t, err, counter.ErrSequenceExhausted)
	_, err = repo.NextSequence(ctx, key, document.DocTypeAssy)
	require.ErrorIs(t, err, counter.ErrSequenceExhausted)
	_, err = repo.PeekSequence(ctx, key, document.DocTypePart)
	require.ErrorIs(t, err, counter.ErrSequenceExhausted)
}

func TestCounterRepository_ConcurrentAllocationIsUnique(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCounterRepository(db)
	key := counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ"}

	const n = 50
	results := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.NextSequence(ctx, key, document.DocTypePart)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[results[i]], "duplicate %d", results[i])
		seen[results[i]] = true
	}
	for want := 1; want <= n; want++ {
		require.True(t, seen[want], "missing %d", want)
	}
}

func TestCounterRepository_Versions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCounterRepository(db)

	m := counter.VersionKey{MMM: "ABC", DocType: document.DocTypeMachine}
	g := counter.VersionKey{MMM: "ABC", GGGG: "WXYZ", DocType: document.DocTypeGroup}

	for want := 1; want <= 3; want++ {
		got, err := repo.NextVersion(ctx, m)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := repo.NextVersion(ctx, g)
	require.NoError(t, err)
	require.Equal(t, 1, got)
}
