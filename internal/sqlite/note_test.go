package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/machine"
	"github.com/rpggio/pdmvault/internal/repository"
)

func TestNoteRepository_AppendList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewNoteRepository(db)

	for _, n := range []document.StateNote{
		{Code: "ABC_WXYZ-0001", EventType: document.EventRelease, FromState: document.StateWIP, ToState: document.StateREL, Note: "first"},
		{Code: "ABC_WXYZ-0001", EventType: document.EventCreateInRev, FromState: document.StateREL, ToState: document.StateInRev, Note: "second"},
		{Code: "ABC_WXYZ-0002", EventType: document.EventRelease, FromState: document.StateWIP, ToState: document.StateREL, Note: "other"},
	} {
		n := n
		_, err := repo.Append(ctx, &n)
		require.NoError(t, err)
	}

	notes, err := repo.List(ctx, "ABC_WXYZ-0001", 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "second", notes[0].Note)
	require.Equal(t, document.EventCreateInRev, notes[0].EventType)

	notes, err = repo.List(ctx, "ABC_WXYZ-0001", 1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestPropertyRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewPropertyRepository(db)

	_, err := repo.Set(ctx, "ABC_WXYZ-0001", "MATERIAL", "S235")
	require.NoError(t, err)
	_, err = repo.Set(ctx, "ABC_WXYZ-0001", "MATERIAL", "S355")
	require.NoError(t, err)
	_, err = repo.Set(ctx, "ABC_WXYZ-0001", "FINISH", "ZINC")
	require.NoError(t, err)
	_, err = repo.Set(ctx, "ABC_WXYZ-0002", "MATERIAL", "AL6061")
	require.NoError(t, err)

	props, err := repo.List(ctx, "ABC_WXYZ-0001")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"MATERIAL": "S355", "FINISH": "ZINC"}, props)

	_, err = repo.DeleteProperty(ctx, "MATERIAL")
	require.NoError(t, err)
	props, err = repo.List(ctx, "ABC_WXYZ-0002")
	require.NoError(t, err)
	require.Empty(t, props)
}

func TestMachineRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewMachineRepository(db)

	require.NoError(t, repo.CreateMachine(ctx, &machine.Machine{MMM: "ABC", Name: "Press"}))
	require.ErrorIs(t, repo.CreateMachine(ctx, &machine.Machine{MMM: "ABC", Name: "Dup"}), repository.ErrDuplicate)

	g := &machine.Group{MMM: "ABC", GGGG: "WXYZ", Name: "Frame"}
	require.NoError(t, repo.CreateGroup(ctx, g))
	require.NotZero(t, g.ID)
	require.ErrorIs(t, repo.CreateGroup(ctx, &machine.Group{MMM: "ABC", GGGG: "WXYZ", Name: "Dup"}), repository.ErrDuplicate)
	require.ErrorIs(t, repo.CreateGroup(ctx, &machine.Group{MMM: "ZZZ", GGGG: "WXYZ", Name: "Orphan"}), repository.ErrForeignKeyViolation)

	groups, err := repo.ListGroups(ctx, "ABC")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, repo.DeleteMachine(ctx, "ABC"))
	groups, err = repo.ListGroups(ctx, "")
	require.NoError(t, err)
	require.Empty(t, groups, "groups cascade with their machine")

	require.ErrorIs(t, repo.DeleteMachine(ctx, "ABC"), repository.ErrNotFound)
	require.ErrorIs(t, repo.DeleteGroup(ctx, "ABC", "WXYZ"), repository.ErrNotFound)
}
