// Package migrate reconciles the archive with the canonical folder layout.
//
// A run scans every catalog document, looks for its files under the
// canonical scope folder and under legacy bases, plans moves into
// wip/rel/inrev/rev, and in apply mode performs the moves and rewrites the
// catalog paths. A dry run touches neither the disk nor the catalog.
package migrate

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/fsops"
)

// MaxSamples is the number of planned moves echoed in a report.
const MaxSamples = 25

// Catalog is the slice of the document store the migrator needs.
type Catalog interface {
	ListAll(ctx context.Context) ([]document.Document, error)
	Update(ctx context.Context, doc *document.Document) (int64, error)
}

// Reason tags why a file is planned to move.
type Reason string

const (
	ReasonCurrentModel   Reason = "CURRENT_MODEL"
	ReasonCurrentDrawing Reason = "CURRENT_DRW"
	ReasonInRevModel     Reason = "INREV_MODEL"
	ReasonInRevDrawing   Reason = "INREV_DRW"
	ReasonInRevHistory   Reason = "INREV_HISTORY"
	ReasonRevHistory     Reason = "REV_HISTORY"
)

// Move is one planned relocation.
type Move struct {
	Code   string `json:"code"`
	Reason Reason `json:"reason"`
	Src    string `json:"src"`
	Dst    string `json:"dst"`
}

func (m Move) String() string {
	return m.Code + " | " + string(m.Reason) + " | " + m.Src + " -> " + m.Dst
}

// Report summarises a run. OK is false only when an I/O or catalog error
// occurred; conflicts alone leave it true.
type Report struct {
	OK           bool     `json:"ok"`
	Applied      bool     `json:"apply_changes"`
	ArchiveRoot  string   `json:"archive_root"`
	DocsScanned  int      `json:"docs_scanned"`
	DocsToUpdate int      `json:"docs_to_update"`
	DocsUpdated  int      `json:"docs_updated"`
	MovesPlanned int      `json:"moves_planned"`
	MovesDone    int      `json:"moves_done"`
	MovesMissing int      `json:"moves_missing"`
	Conflicts    []string `json:"conflicts"`
	Errors       []string `json:"errors"`
	Samples      []string `json:"sample_moves"`
}

// Migrator plans and applies layout migrations for one archive root.
type Migrator struct {
	catalog     Catalog
	ops         *fsops.Ops
	root        string
	legacyRoots []string
	workers     int
	logger      *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLegacyRoots adds archive roots of older installations. Each one is
// searched with the same relative bases as the main root.
func WithLegacyRoots(roots ...string) Option {
	return func(m *Migrator) {
		for _, r := range roots {
			if r = strings.TrimSpace(r); r != "" {
				m.legacyRoots = append(m.legacyRoots, r)
			}
		}
	}
}

// WithWorkers bounds the number of documents planned concurrently.
func WithWorkers(n int) Option {
	return func(m *Migrator) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a migrator for root. File moves go through ops, so they are
// journaled like workflow moves.
func New(catalog Catalog, ops *fsops.Ops, root string, opts ...Option) *Migrator {
	m := &Migrator{
		catalog: catalog,
		ops:     ops,
		root:    strings.TrimSpace(root),
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ops == nil {
		m.ops = fsops.New()
	}
	return m
}

// Run plans the migration and, when apply is set, executes it. It returns
// an error only when the run cannot start: no archive root or an
// unreadable catalog.
func (m *Migrator) Run(ctx context.Context, apply bool) (*Report, error) {
	if m.root == "" {
		return nil, errors.WithStack(archive.ErrNotConfigured)
	}
	docs, err := m.catalog.ListAll(ctx)
	if err != nil {
		return nil, errors.Errorf("listing documents: %w", err)
	}

	plans, err := m.planAll(ctx, docs)
	if err != nil {
		return nil, err
	}
	moves, conflicts := merge(plans)

	rep := &Report{
		OK:           true,
		Applied:      apply,
		ArchiveRoot:  m.root,
		DocsScanned:  len(docs),
		MovesPlanned: len(moves),
		Conflicts:    conflicts,
		Errors:       []string{},
	}
	for i := 0; i < len(moves) && i < MaxSamples; i++ {
		rep.Samples = append(rep.Samples, moves[i].String())
	}

	done := make(map[string]string, len(moves))
	if !apply {
		for _, mv := range moves {
			done[key(mv.Src)] = key(mv.Dst)
		}
	} else {
		m.applyMoves(ctx, moves, done, rep)
	}

	for i := range docs {
		updated, changed := plans[i].updated(docs[i], done)
		if !changed {
			continue
		}
		rep.DocsToUpdate++
		if !apply {
			continue
		}
		if _, err := m.catalog.Update(ctx, &updated); err != nil {
			rep.Errors = append(rep.Errors, docs[i].Code+": catalog update failed | "+err.Error())
			continue
		}
		rep.DocsUpdated++
	}
	if rep.Conflicts == nil {
		rep.Conflicts = []string{}
	}
	if rep.Samples == nil {
		rep.Samples = []string{}
	}
	rep.OK = len(rep.Errors) == 0

	m.logger.Info("archive layout migration",
		"apply", apply,
		"root", m.root,
		"docs_scanned", rep.DocsScanned,
		"moves_planned", rep.MovesPlanned,
		"moves_done", rep.MovesDone,
		"moves_missing", rep.MovesMissing,
		"conflicts", len(rep.Conflicts),
		"errors", len(rep.Errors),
	)
	return rep, nil
}

// applyMoves runs the plan in order. done receives src -> dst keys for the
// moves that landed.
func (m *Migrator) applyMoves(ctx context.Context, moves []Move, done map[string]string, rep *Report) {
	for _, mv := range moves {
		if err := ctx.Err(); err != nil {
			rep.Errors = append(rep.Errors, "cancelled: "+err.Error())
			return
		}
		if !fsops.Exists(mv.Src) {
			rep.MovesMissing++
			continue
		}
		if fsops.Exists(mv.Dst) {
			rep.Conflicts = append(rep.Conflicts, mv.Code+": destination already exists | "+mv.Dst)
			continue
		}
		out, err := m.ops.Move(mv.Src, mv.Dst, false)
		switch {
		case errors.Is(err, fsops.ErrAlreadyExists):
			rep.Conflicts = append(rep.Conflicts, mv.Code+": destination already exists | "+mv.Dst)
		case err != nil:
			rep.Errors = append(rep.Errors, mv.Code+": move failed "+mv.Src+" -> "+mv.Dst+" | "+err.Error())
		case out == fsops.Skipped:
			rep.MovesMissing++
		default:
			rep.MovesDone++
			done[key(mv.Src)] = key(mv.Dst)
		}
	}
}

func (m *Migrator) planAll(ctx context.Context, docs []document.Document) ([]docPlan, error) {
	plans := make([]docPlan, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plans[i] = m.plan(&docs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("planning migration: %w", err)
	}
	return plans, nil
}

// merge flattens the per-document plans into one move list keyed by
// source. A source claimed twice with different destinations is a
// conflict; the first claim wins.
func merge(plans []docPlan) ([]Move, []string) {
	var (
		moves     []Move
		conflicts []string
		bySource  = map[string]int{}
	)
	for _, p := range plans {
		for _, mv := range p.moves {
			k := key(mv.Src)
			if i, ok := bySource[k]; ok {
				if key(moves[i].Dst) != key(mv.Dst) {
					conflicts = append(conflicts, mv.Code+": source claimed with different targets | "+
						mv.Src+" -> "+moves[i].Dst+" / "+mv.Dst)
				}
				continue
			}
			bySource[k] = len(moves)
			moves = append(moves, mv)
		}
	}
	return moves, conflicts
}

// field names a path column of a document.
type field int

const (
	fieldWIP field = iota
	fieldREL
	fieldInRev
	fieldWIPDrawing
	fieldRELDrawing
	fieldInRevDrawing
)

func (f field) ptr(d *document.Document) *string {
	switch f {
	case fieldWIP:
		return &d.WIPPath
	case fieldREL:
		return &d.RELPath
	case fieldInRev:
		return &d.InRevPath
	case fieldWIPDrawing:
		return &d.WIPDrawingPath
	case fieldRELDrawing:
		return &d.RELDrawingPath
	}
	return &d.InRevDrawingPath
}

// pathUpdate sets a path column once the move src -> dst has landed.
// An empty src means the file is already in place.
type pathUpdate struct {
	field field
	value string
	src   string
	dst   string
}

type docPlan struct {
	moves   []Move
	updates []pathUpdate
}

// updated applies the path updates whose move landed in done.
func (p docPlan) updated(doc document.Document, done map[string]string) (document.Document, bool) {
	out := doc
	for _, u := range p.updates {
		if u.src != "" && done[u.src] != u.dst {
			continue
		}
		*u.field.ptr(&out) = u.value
	}
	return out, out != doc
}

// relocate plans src -> dst and returns the update guard for it: nil when
// the file is already in place. Paths that differ only by folder case on a
// case-insensitive volume, or reach dst through a link, name the same file.
func (p *docPlan) relocate(code string, reason Reason, src, dst string) *pathUpdate {
	if key(src) == key(dst) || sameFile(src, dst) {
		return nil
	}
	p.moves = append(p.moves, Move{Code: code, Reason: reason, Src: src, Dst: dst})
	return &pathUpdate{src: key(src), dst: key(dst)}
}

func (p *docPlan) set(f field, value string, guard *pathUpdate) {
	u := pathUpdate{field: f, value: value}
	if guard != nil {
		u.src, u.dst = guard.src, guard.dst
	}
	p.updates = append(p.updates, u)
}

var (
	wipFolders   = []string{"wip", "WIP"}
	relFolders   = []string{"rel", "REL"}
	inRevFolders = []string{"inrev", "IN_REV"}
	revFolders   = []string{"rev", "REV"}
)

// plan computes the moves and catalog changes of one document. It only
// reads the filesystem.
func (m *Migrator) plan(doc *document.Document) docPlan {
	var plan docPlan
	dirs := archive.DirsFor(m.root, doc.DocType, doc.MMM, doc.GGGG)
	target := archive.PathsFor(dirs, doc, doc.Revision)
	bases := m.bases(doc)
	modelExt := archive.ModelExt(doc.DocType)

	curModel, curDrawing := target.RELModel, target.RELDrawing
	keepModel, dropModel := fieldREL, fieldWIP
	keepDrawing, dropDrawing := fieldRELDrawing, fieldWIPDrawing
	modelRefs := []string{doc.RELPath, doc.WIPPath}
	drawingRefs := []string{doc.RELDrawingPath, doc.WIPDrawingPath}
	if effectiveState(doc) == document.StateWIP {
		curModel, curDrawing = target.WIPModel, target.WIPDrawing
		keepModel, dropModel = fieldWIP, fieldREL
		keepDrawing, dropDrawing = fieldWIPDrawing, fieldRELDrawing
		modelRefs = []string{doc.WIPPath, doc.RELPath}
		drawingRefs = []string{doc.WIPDrawingPath, doc.RELDrawingPath}
	}

	if src := findCurrent(bases, archive.ModelName(doc.Code, doc.DocType), modelRefs...); src != "" {
		k := plan.relocate(doc.Code, ReasonCurrentModel, src, curModel)
		plan.set(keepModel, curModel, k)
		plan.set(dropModel, "", k)
	}
	if src := findCurrent(bases, archive.DrawingName(doc.Code), drawingRefs...); src != "" {
		k := plan.relocate(doc.Code, ReasonCurrentDrawing, src, curDrawing)
		plan.set(keepDrawing, curDrawing, k)
		plan.set(dropDrawing, "", k)
	}

	inRevOpen := effectiveState(doc) == document.StateInRev
	if src := findInRev(bases, doc.InRevPath, archive.InRevPattern(doc.Code, modelExt)); src != "" {
		dst := filepath.Join(dirs.InRev, filepath.Base(src))
		k := plan.relocate(doc.Code, ReasonInRevModel, src, dst)
		if inRevOpen {
			plan.set(fieldInRev, dst, k)
		}
	}
	if src := findInRev(bases, doc.InRevDrawingPath, archive.InRevPattern(doc.Code, archive.ExtDrawing)); src != "" {
		dst := filepath.Join(dirs.InRev, filepath.Base(src))
		k := plan.relocate(doc.Code, ReasonInRevDrawing, src, dst)
		if inRevOpen {
			plan.set(fieldInRevDrawing, dst, k)
		}
	}

	for _, b := range bases {
		for _, ext := range []string{modelExt, archive.ExtDrawing} {
			for _, folder := range inRevFolders {
				for _, src := range glob(filepath.Join(b, folder), archive.InRevPattern(doc.Code, ext)) {
					plan.relocate(doc.Code, ReasonInRevHistory, src, filepath.Join(dirs.InRev, filepath.Base(src)))
				}
			}
			for _, folder := range revFolders {
				for _, src := range glob(filepath.Join(b, folder), archive.RevPattern(doc.Code, ext)) {
					plan.relocate(doc.Code, ReasonRevHistory, src, filepath.Join(dirs.Rev, filepath.Base(src)))
				}
			}
		}
	}
	return plan
}

// bases lists the folders searched for a document's files: the canonical
// scope folder first, then the legacy layouts of every root.
func (m *Migrator) bases(doc *document.Document) []string {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if k := key(p); !seen[k] {
			seen[k] = true
			out = append(out, p)
		}
	}
	add(archive.ScopeBase(m.root, doc.DocType, doc.MMM, doc.GGGG))
	for _, root := range append([]string{m.root}, m.legacyRoots...) {
		for _, rel := range legacyBases(doc) {
			add(filepath.Join(root, rel))
		}
	}
	return out
}

func legacyBases(doc *document.Document) []string {
	switch doc.DocType {
	case document.DocTypeMachine:
		return []string{filepath.Join("MACHINES", doc.MMM), doc.MMM}
	case document.DocTypeGroup:
		return []string{filepath.Join("GROUPS", doc.MMM, doc.GGGG), filepath.Join(doc.MMM, doc.GGGG)}
	}
	return []string{filepath.Join(doc.MMM, doc.GGGG)}
}

// effectiveState is the state whose folder holds the current copy; an OBS
// document keeps the layout of the state it left.
func effectiveState(doc *document.Document) document.State {
	if doc.State == document.StateOBS {
		return doc.ObsPrevState
	}
	return doc.State
}

// findCurrent returns the first existing candidate for the current copy:
// the catalog paths, then name directly under each base, then under its
// wip and rel folders.
func findCurrent(bases []string, name string, explicit ...string) string {
	candidates := append([]string{}, explicit...)
	for _, b := range bases {
		candidates = append(candidates, filepath.Join(b, name))
		for _, folder := range append(append([]string{}, wipFolders...), relFolders...) {
			candidates = append(candidates, filepath.Join(b, folder, name))
		}
	}
	for _, c := range candidates {
		if c != "" && isFile(c) {
			return c
		}
	}
	return ""
}

// findInRev returns the catalog in-revision path if it exists, else the
// newest matching copy in any inrev folder.
func findInRev(bases []string, explicit, pattern string) string {
	if explicit != "" && isFile(explicit) {
		return explicit
	}
	var found []string
	for _, b := range bases {
		for _, folder := range inRevFolders {
			found = append(found, glob(filepath.Join(b, folder), pattern)...)
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.SliceStable(found, func(i, j int) bool {
		return filepath.Base(found[i]) > filepath.Base(found[j])
	})
	return found[0]
}

// glob lists the regular files in dir whose name matches pattern, in
// name order. A missing or unreadable folder yields nothing.
func glob(dir, pattern string) []string {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	names, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil
	}
	sort.Strings(names)
	var out []string
	for _, n := range names {
		p := filepath.Join(dir, filepath.FromSlash(n))
		if isFile(p) {
			out = append(out, p)
		}
	}
	return out
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func key(path string) string {
	return fsops.NormalizePath(path)
}
