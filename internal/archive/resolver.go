// Package archive maps documents onto the archive folder layout:
//
//	<root>/<mmm>/<gggg>/{wip,rel,inrev,rev}          PART, ASSY
//	<root>/MACHINES/<mmm>/{wip,rel,inrev,rev}        MACHINE
//	<root>/GROUPS/<mmm>/<gggg>/{wip,rel,inrev,rev}   GROUP
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

// Subfolder names.
const (
	DirWIP   = "wip"
	DirREL   = "rel"
	DirInRev = "inrev"
	DirRev   = "rev"

	machinesDir = "MACHINES"
	groupsDir   = "GROUPS"
)

// ErrNotConfigured indicates an empty archive root.
var ErrNotConfigured = errors.New("archive root not configured")

// Dirs are the four lifecycle folders of one scope.
type Dirs struct {
	Base  string
	WIP   string
	REL   string
	InRev string
	Rev   string
}

// All returns the folders in wip, rel, inrev, rev order.
func (d Dirs) All() []string {
	return []string{d.WIP, d.REL, d.InRev, d.Rev}
}

// ScopeBase returns the scope folder for a document type, relative to root.
func ScopeBase(root string, t document.DocType, mmm, gggg string) string {
	switch t {
	case document.DocTypeMachine:
		return filepath.Join(root, machinesDir, mmm)
	case document.DocTypeGroup:
		return filepath.Join(root, groupsDir, mmm, gggg)
	}
	return filepath.Join(root, mmm, gggg)
}

// DirsAt returns the lifecycle folders under base.
func DirsAt(base string) Dirs {
	return Dirs{
		Base:  base,
		WIP:   filepath.Join(base, DirWIP),
		REL:   filepath.Join(base, DirREL),
		InRev: filepath.Join(base, DirInRev),
		Rev:   filepath.Join(base, DirRev),
	}
}

// DirsFor returns the lifecycle folders for a scope. It does not touch disk.
func DirsFor(root string, t document.DocType, mmm, gggg string) Dirs {
	return DirsAt(ScopeBase(root, t, mmm, gggg))
}

// Ensure creates the four folders. Existing folders are fine.
func Ensure(d Dirs) error {
	for _, dir := range d.All() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Resolver resolves document paths under one archive root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver. An empty root is allowed; operations
// that need the archive then fail with ErrNotConfigured.
func NewResolver(root string) *Resolver {
	return &Resolver{root: strings.TrimSpace(root)}
}

// Root returns the archive root.
func (r *Resolver) Root() string { return r.root }

// Configured reports whether an archive root is set.
func (r *Resolver) Configured() bool { return r.root != "" }

// Dirs returns the folders of doc's scope without creating them.
func (r *Resolver) Dirs(doc *document.Document) (Dirs, error) {
	if !r.Configured() {
		return Dirs{}, ErrNotConfigured
	}
	return DirsFor(r.root, doc.DocType, doc.MMM, doc.GGGG), nil
}

// EnsureDirs returns the folders of doc's scope, creating them.
func (r *Resolver) EnsureDirs(doc *document.Document) (Dirs, error) {
	d, err := r.Dirs(doc)
	if err != nil {
		return Dirs{}, err
	}
	if err := Ensure(d); err != nil {
		return Dirs{}, err
	}
	return d, nil
}

// PrepareWIP creates the scope folders of a new document and points its
// WIP paths at the conventional file names. Without an archive root the
// document is left without paths.
func (r *Resolver) PrepareWIP(doc *document.Document) error {
	if !r.Configured() {
		return nil
	}
	d, err := r.EnsureDirs(doc)
	if err != nil {
		return err
	}
	doc.WIPPath = filepath.Join(d.WIP, ModelName(doc.Code, doc.DocType))
	doc.WIPDrawingPath = filepath.Join(d.WIP, DrawingName(doc.Code))
	return nil
}

// Paths holds the conventional file locations for a document.
type Paths struct {
	WIPModel     string
	WIPDrawing   string
	RELModel     string
	RELDrawing   string
	InRevModel   string
	InRevDrawing string
	RevModel     string
	RevDrawing   string
}

// PathsFor computes the conventional locations of doc's files at revision.
func PathsFor(d Dirs, doc *document.Document, revision int) Paths {
	inrev := InRevTag(doc.Code, revision)
	rev := RevTag(doc.Code, revision)
	return Paths{
		WIPModel:     filepath.Join(d.WIP, ModelName(doc.Code, doc.DocType)),
		WIPDrawing:   filepath.Join(d.WIP, DrawingName(doc.Code)),
		RELModel:     filepath.Join(d.REL, ModelName(doc.Code, doc.DocType)),
		RELDrawing:   filepath.Join(d.REL, DrawingName(doc.Code)),
		InRevModel:   filepath.Join(d.InRev, ModelName(inrev, doc.DocType)),
		InRevDrawing: filepath.Join(d.InRev, DrawingName(inrev)),
		RevModel:     filepath.Join(d.Rev, ModelName(rev, doc.DocType)),
		RevDrawing:   filepath.Join(d.Rev, DrawingName(rev)),
	}
}
