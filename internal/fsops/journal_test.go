package fsops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJournal_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fileops.log")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	j.Event().Str("code", "ABC_WXYZ-0001").Msg("WF START RELEASE")
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	j.Event().Str("code", "ABC_WXYZ-0001").Msg("WF OK RELEASE")
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "WF START RELEASE")
	require.Contains(t, lines[0], "code=ABC_WXYZ-0001")
	require.Contains(t, lines[1], "WF OK RELEASE")
}

func TestJournal_EmptyPathDiscards(t *testing.T) {
	j, err := OpenJournal("")
	require.NoError(t, err)
	j.Event().Msg("ignored")
	require.NoError(t, j.Close())
}
