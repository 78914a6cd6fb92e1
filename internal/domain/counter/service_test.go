package counter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/repository/mocks"
)

func TestAllocateSequence_NormalizesKey(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CounterRepository{}
	repo.On("NextSequence", ctx, counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ", VVV: "V01"}, document.DocTypeAssy).Return(9999, nil)

	svc := counter.NewService(repo, nil)
	seq, err := svc.AllocateSequence(ctx, "abc", "wxyz", "v01", "asm")
	require.NoError(t, err)
	require.Equal(t, 9999, seq)
	repo.AssertExpectations(t)
}

func TestAllocateSequence_RejectsVersionedTypes(t *testing.T) {
	svc := counter.NewService(&mocks.CounterRepository{}, nil)

	_, err := svc.AllocateSequence(context.Background(), "ABC", "WXYZ", "", document.DocTypeMachine)
	require.ErrorIs(t, err, counter.ErrInvalidInput)

	_, err = svc.PeekSequence(context.Background(), "ABC", "WX", "", document.DocTypePart)
	require.ErrorIs(t, err, counter.ErrInvalidInput)
}

func TestAllocateSequence_Exhausted(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CounterRepository{}
	repo.On("NextSequence", ctx, counter.SequenceKey{MMM: "ABC", GGGG: "WXYZ"}, document.DocTypePart).Return(0, counter.ErrSequenceExhausted)

	svc := counter.NewService(repo, nil)
	_, err := svc.AllocateSequence(ctx, "ABC", "WXYZ", "", document.DocTypePart)
	require.ErrorIs(t, err, counter.ErrSequenceExhausted)
}

func TestAllocateVersion(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.CounterRepository{}
	repo.On("NextVersion", ctx, counter.VersionKey{MMM: "ABC", DocType: document.DocTypeMachine}).Return(1, nil)
	repo.On("NextVersion", ctx, counter.VersionKey{MMM: "ABC", GGGG: "WXYZ", DocType: document.DocTypeGroup}).Return(2, nil)

	svc := counter.NewService(repo, nil)

	// Machines ignore the group segment.
	v, err := svc.AllocateVersion(ctx, "abc", "junk", document.DocTypeMachine)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = svc.AllocateVersion(ctx, "abc", "wxyz", document.DocTypeGroup)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = svc.AllocateVersion(ctx, "abc", "wxyz", document.DocTypePart)
	require.ErrorIs(t, err, counter.ErrInvalidInput)
}
