package migrate_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/fsops"
	"github.com/rpggio/pdmvault/internal/migrate"
)

type memCatalog struct {
	mu      sync.Mutex
	docs    []document.Document
	updates int
}

func (c *memCatalog) ListAll(context.Context) ([]document.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]document.Document(nil), c.docs...), nil
}

func (c *memCatalog) Update(_ context.Context, doc *document.Document) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.docs {
		if c.docs[i].Code == doc.Code {
			c.docs[i] = *doc
			c.updates++
			return int64(c.updates), nil
		}
	}
	return 0, os.ErrNotExist
}

func (c *memCatalog) get(code string) document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d.Code == code {
			return d
		}
	}
	return document.Document{}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// tree lists every file under dir with its content.
func tree(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out = append(out, filepath.ToSlash(rel)+"="+readFile(t, path))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func newOps() *fsops.Ops {
	return fsops.New(fsops.WithJournal(fsops.NewJournal(&bytes.Buffer{})), fsops.WithRetry(1, time.Millisecond))
}

func part(code string, state document.State) document.Document {
	return document.Document{
		Code:    code,
		DocType: document.DocTypePart,
		MMM:     "ABC",
		GGGG:    "WXYZ",
		State:   state,
	}
}

// legacyFixture is a released part whose model sits flat in the scope
// folder and whose history lives under an older archive root.
func legacyFixture(t *testing.T) (root, legacy string, cat *memCatalog) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "archive")
	legacy = filepath.Join(base, "old")

	flat := filepath.Join(root, "ABC", "WXYZ", "ABC_WXYZ-0001.sldprt")
	writeFile(t, flat, "model r1")
	writeFile(t, filepath.Join(legacy, "ABC", "WXYZ", "rev", "ABC_WXYZ-0001_R00.sldprt"), "model r0")
	writeFile(t, filepath.Join(legacy, "ABC", "WXYZ", "inrev", "ABC_WXYZ-0001_R00__INREV.sldprt"), "inrev r0")

	doc := part("ABC_WXYZ-0001", document.StateREL)
	doc.Revision = 1
	doc.RELPath = flat
	return root, legacy, &memCatalog{docs: []document.Document{doc}}
}

func TestRun_DryRunDoesNotMutate(t *testing.T) {
	root, legacy, cat := legacyFixture(t)
	before := tree(t, filepath.Dir(root))
	docBefore := cat.get("ABC_WXYZ-0001")

	m := migrate.New(cat, newOps(), root, migrate.WithLegacyRoots(legacy))
	rep, err := m.Run(context.Background(), false)
	require.NoError(t, err)

	require.True(t, rep.OK)
	require.False(t, rep.Applied)
	require.Equal(t, 1, rep.DocsScanned)
	require.Equal(t, 3, rep.MovesPlanned)
	require.Equal(t, 1, rep.DocsToUpdate)
	require.Zero(t, rep.DocsUpdated)
	require.Zero(t, rep.MovesDone)
	require.Empty(t, rep.Conflicts)
	require.Len(t, rep.Samples, 3)
	require.Contains(t, rep.Samples[0], "CURRENT_MODEL")

	require.Equal(t, before, tree(t, filepath.Dir(root)))
	require.Equal(t, docBefore, cat.get("ABC_WXYZ-0001"))
	require.Zero(t, cat.updates)
}

func TestRun_ApplyIsIdempotent(t *testing.T) {
	root, legacy, cat := legacyFixture(t)
	m := migrate.New(cat, newOps(), root, migrate.WithLegacyRoots(legacy), migrate.WithWorkers(2))

	rep, err := m.Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.OK)
	require.True(t, rep.Applied)
	require.Equal(t, 3, rep.MovesPlanned)
	require.Equal(t, 3, rep.MovesDone)
	require.Equal(t, 1, rep.DocsUpdated)

	dirs := archive.DirsFor(root, document.DocTypePart, "ABC", "WXYZ")
	relModel := filepath.Join(dirs.REL, "ABC_WXYZ-0001.sldprt")
	require.Equal(t, "model r1", readFile(t, relModel))
	require.Equal(t, "model r0", readFile(t, filepath.Join(dirs.Rev, "ABC_WXYZ-0001_R00.sldprt")))
	require.Equal(t, "inrev r0", readFile(t, filepath.Join(dirs.InRev, "ABC_WXYZ-0001_R00__INREV.sldprt")))
	require.False(t, fsops.Exists(filepath.Join(root, "ABC", "WXYZ", "ABC_WXYZ-0001.sldprt")))

	doc := cat.get("ABC_WXYZ-0001")
	require.Equal(t, relModel, doc.RELPath)
	require.Empty(t, doc.WIPPath)
	require.Empty(t, doc.InRevPath, "closed revisions are history, not the open in-revision copy")

	again, err := m.Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, again.OK)
	require.Zero(t, again.MovesPlanned)
	require.Zero(t, again.DocsToUpdate)
	require.Zero(t, again.DocsUpdated)
	require.Equal(t, 1, cat.updates)
}

func TestRun_WIPDocumentGoesToWIP(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ABC", "WXYZ", "ABC_WXYZ-0003.slddrw"), "drawing")
	cat := &memCatalog{docs: []document.Document{part("ABC_WXYZ-0003", document.StateWIP)}}

	rep, err := migrate.New(cat, newOps(), root).Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, rep.MovesDone)

	want := filepath.Join(root, "ABC", "WXYZ", "wip", "ABC_WXYZ-0003.slddrw")
	require.Equal(t, "drawing", readFile(t, want))
	require.Equal(t, want, cat.get("ABC_WXYZ-0003").WIPDrawingPath)
}

func TestRun_ObsoleteKeepsPriorLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ABC", "WXYZ", "ABC_WXYZ-0004.sldprt"), "m")
	doc := part("ABC_WXYZ-0004", document.StateOBS)
	doc.ObsPrevState = document.StateWIP
	cat := &memCatalog{docs: []document.Document{doc}}

	_, err := migrate.New(cat, newOps(), root).Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "ABC", "WXYZ", "wip", "ABC_WXYZ-0004.sldprt"), cat.get("ABC_WXYZ-0004").WIPPath)
}

func TestRun_OpenRevisionPathIsRecorded(t *testing.T) {
	root, legacy := t.TempDir(), t.TempDir()
	folder := filepath.Join(legacy, "ABC", "WXYZ", "IN_REV")
	writeFile(t, filepath.Join(folder, "ABC_WXYZ-0005_R00__INREV.sldprt"), "old")
	writeFile(t, filepath.Join(folder, "ABC_WXYZ-0005_R01__INREV.sldprt"), "current")
	doc := part("ABC_WXYZ-0005", document.StateInRev)
	doc.Revision = 1
	cat := &memCatalog{docs: []document.Document{doc}}

	rep, err := migrate.New(cat, newOps(), root, migrate.WithLegacyRoots(legacy)).Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.OK)

	got := cat.get("ABC_WXYZ-0005").InRevPath
	require.Equal(t, "ABC_WXYZ-0005_R01__INREV.sldprt", filepath.Base(got))
	require.Equal(t, "current", readFile(t, got))
	require.Equal(t, 2, rep.MovesDone)
}

func TestRun_MachineLegacyBase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ABC", "ABC-V0001.sldasm"), "machine")
	cat := &memCatalog{docs: []document.Document{{
		Code:    "ABC-V0001",
		DocType: document.DocTypeMachine,
		MMM:     "ABC",
		State:   document.StateWIP,
	}}}

	rep, err := migrate.New(cat, newOps(), root).Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, rep.MovesDone)

	want := filepath.Join(root, "MACHINES", "ABC", "wip", "ABC-V0001.sldasm")
	require.Equal(t, "machine", readFile(t, want))
	require.Equal(t, want, cat.get("ABC-V0001").WIPPath)
}

func TestRun_SharedSourceIsConflict(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "import", "shared.sldprt")
	writeFile(t, shared, "shared")

	first := part("ABC_WXYZ-0001", document.StateREL)
	first.RELPath = shared
	second := part("ABC_WXYZ-0002", document.StateWIP)
	second.WIPPath = shared
	cat := &memCatalog{docs: []document.Document{first, second}}

	m := migrate.New(cat, newOps(), root)
	dry, err := m.Run(context.Background(), false)
	require.NoError(t, err)
	require.True(t, dry.OK)
	require.Equal(t, 1, dry.MovesPlanned)
	require.Len(t, dry.Conflicts, 1)
	require.True(t, strings.HasPrefix(dry.Conflicts[0], "ABC_WXYZ-0002:"))
	require.Equal(t, 1, dry.DocsToUpdate)

	rep, err := m.Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.OK, "conflicts alone do not fail the run")
	require.Equal(t, 1, rep.MovesDone)
	require.Equal(t, 1, rep.DocsUpdated)
	require.Equal(t, shared, cat.get("ABC_WXYZ-0002").WIPPath)
	require.Equal(t, filepath.Join(root, "ABC", "WXYZ", "rel", "ABC_WXYZ-0001.sldprt"), cat.get("ABC_WXYZ-0001").RELPath)
}

func TestRun_ExistingDestinationIsConflict(t *testing.T) {
	root := t.TempDir()
	flat := filepath.Join(root, "ABC", "WXYZ", "ABC_WXYZ-0001.sldprt")
	occupied := filepath.Join(root, "ABC", "WXYZ", "rel", "ABC_WXYZ-0001.sldprt")
	writeFile(t, flat, "legacy")
	writeFile(t, occupied, "canonical")

	doc := part("ABC_WXYZ-0001", document.StateREL)
	doc.RELPath = flat
	cat := &memCatalog{docs: []document.Document{doc}}

	rep, err := migrate.New(cat, newOps(), root).Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.OK)
	require.Zero(t, rep.MovesDone)
	require.Len(t, rep.Conflicts, 1)
	require.Contains(t, rep.Conflicts[0], "destination already exists")
	require.Zero(t, rep.DocsUpdated)

	require.Equal(t, "legacy", readFile(t, flat))
	require.Equal(t, "canonical", readFile(t, occupied))
	require.Equal(t, flat, cat.get("ABC_WXYZ-0001").RELPath)
}

func TestRun_AliasedRootIsAlreadyInPlace(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "archive")
	alias := filepath.Join(base, "alias")
	dirs := archive.DirsFor(root, document.DocTypePart, "ABC", "WXYZ")
	relModel := filepath.Join(dirs.REL, "ABC_WXYZ-0001.sldprt")
	revModel := filepath.Join(dirs.Rev, "ABC_WXYZ-0001_R00.sldprt")
	writeFile(t, relModel, "model r1")
	writeFile(t, revModel, "model r0")
	if err := os.Symlink(root, alias); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	doc := part("ABC_WXYZ-0001", document.StateREL)
	doc.Revision = 1
	doc.RELPath = relModel
	cat := &memCatalog{docs: []document.Document{doc}}

	m := migrate.New(cat, newOps(), root, migrate.WithLegacyRoots(alias))
	rep, err := m.Run(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.OK)
	require.Zero(t, rep.MovesPlanned, "the alias reaches files already in the canonical layout")
	require.Empty(t, rep.Conflicts)
	require.Zero(t, rep.DocsUpdated)
	require.Equal(t, "model r0", readFile(t, revModel))
	require.Equal(t, "model r1", readFile(t, relModel))
}

func TestRun_NotConfigured(t *testing.T) {
	_, err := migrate.New(&memCatalog{}, nil, "  ").Run(context.Background(), false)
	require.ErrorIs(t, err, archive.ErrNotConfigured)
}

func TestRun_SamplesAreCapped(t *testing.T) {
	root := t.TempDir()
	var docs []document.Document
	for i := 1; i <= migrate.MaxSamples+5; i++ {
		code := fmt.Sprintf("ABC_WXYZ-%04d", i)
		writeFile(t, filepath.Join(root, "ABC", "WXYZ", code+".sldprt"), code)
		docs = append(docs, part(code, document.StateWIP))
	}
	cat := &memCatalog{docs: docs}

	rep, err := migrate.New(cat, newOps(), root).Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, migrate.MaxSamples+5, rep.MovesPlanned)
	require.Len(t, rep.Samples, migrate.MaxSamples)
	require.Contains(t, rep.Samples[0], "ABC_WXYZ-0001 | CURRENT_MODEL")
}
