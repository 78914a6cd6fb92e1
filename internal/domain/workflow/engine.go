// Package workflow implements the document lifecycle:
//
//	WIP -> REL -> IN_REV -> REL (approve, revision+1) or REL (cancel)
//	WIP | REL | IN_REV -> OBS -> prior state
//
// Engine moves files between the archive folders and returns the updated
// document. It assumes the caller holds the document lock; Service is the
// locking, persisting entry point.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/fsops"
)

// Engine runs transitions against one archive.
type Engine struct {
	resolver *archive.Resolver
	ops      *fsops.Ops
	now      func() time.Time
}

// NewEngine creates an engine. The workflow journal is the ops journal.
func NewEngine(resolver *archive.Resolver, ops *fsops.Ops) *Engine {
	return &Engine{resolver: resolver, ops: ops, now: time.Now}
}

// Apply dispatches to the transition named by event.
func (e *Engine) Apply(event document.EventType, doc document.Document) (document.Document, Result) {
	switch event {
	case document.EventRelease:
		return e.Release(doc)
	case document.EventCreateInRev:
		return e.CreateInRev(doc)
	case document.EventApprove:
		return e.Approve(doc)
	case document.EventCancel:
		return e.Cancel(doc)
	case document.EventObsolete:
		return e.Obsolete(doc)
	case document.EventRestore:
		return e.Restore(doc)
	}
	return doc, failure(CodeInvalidState, "unknown transition %q", event)
}

// Release moves the WIP model and drawing to rel and write-protects them.
// A document without files may still be released.
func (e *Engine) Release(in document.Document) (document.Document, Result) {
	const ev = document.EventRelease
	e.start(ev, &in)
	if in.State != document.StateWIP {
		return in, e.fail(ev, &in, CodeInvalidState, "release requires state WIP, document is %s", in.State)
	}
	dirs, res := e.dirs(ev, &in)
	if !res.OK {
		return in, res
	}

	doc := in
	p := archive.PathsFor(dirs, &doc, doc.Revision)
	var undo undoLog

	moved, err := e.move(&undo, or(doc.WIPPath, p.WIPModel), p.RELModel, true)
	if err != nil {
		return in, e.fail(ev, &in, CodeIOError, "moving model to rel: %v", err)
	}
	if moved {
		e.ops.SetReadOnlyBestEffort(p.RELModel, true)
		doc.RELPath, doc.WIPPath = p.RELModel, ""
	}

	moved, err = e.move(&undo, or(doc.WIPDrawingPath, p.WIPDrawing), p.RELDrawing, true)
	if err != nil {
		e.compensate(ev, &in, &undo)
		return in, e.fail(ev, &in, CodeIOError, "moving drawing to rel: %v", err)
	}
	if moved {
		e.ops.SetReadOnlyBestEffort(p.RELDrawing, true)
		doc.RELDrawingPath, doc.WIPDrawingPath = p.RELDrawing, ""
	}

	doc.State = document.StateREL
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "released %s rev %02d", doc.Code, doc.Revision)
}

// CreateInRev copies the released files to inrev under the
// CODE_Rnn__INREV name and leaves the copies writable.
func (e *Engine) CreateInRev(in document.Document) (document.Document, Result) {
	const ev = document.EventCreateInRev
	e.start(ev, &in)
	if in.State != document.StateREL {
		return in, e.fail(ev, &in, CodeInvalidState, "creating a revision requires state REL, document is %s", in.State)
	}
	dirs, res := e.dirs(ev, &in)
	if !res.OK {
		return in, res
	}

	doc := in
	p := archive.PathsFor(dirs, &doc, doc.Revision)

	out, err := e.ops.Copy(or(doc.RELPath, p.RELModel), p.InRevModel, true)
	if err != nil {
		return in, e.fail(ev, &in, CodeIOError, "copying model to inrev: %v", err)
	}
	doc.InRevPath = ""
	if out != fsops.Skipped {
		e.ops.SetReadOnlyBestEffort(p.InRevModel, false)
		doc.InRevPath = p.InRevModel
	}

	out, err = e.ops.Copy(or(doc.RELDrawingPath, p.RELDrawing), p.InRevDrawing, true)
	if err != nil {
		if doc.InRevPath != "" {
			if _, derr := e.ops.Delete(doc.InRevPath); derr != nil {
				e.ops.Journal().Event().Str("code", in.Code).Err(derr).Msg("WF COMPENSATE FAIL " + string(ev))
			}
		}
		return in, e.fail(ev, &in, CodeIOError, "copying drawing to inrev: %v", err)
	}
	doc.InRevDrawingPath = ""
	if out != fsops.Skipped {
		e.ops.SetReadOnlyBestEffort(p.InRevDrawing, false)
		doc.InRevDrawingPath = p.InRevDrawing
	}

	doc.State = document.StateInRev
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "revision %02d opened for %s", doc.Revision, doc.Code)
}

// Approve archives the current released files to rev as CODE_Rnn, promotes
// the in-revision copies to rel and bumps the revision. It refuses to run
// when a rev slot is already occupied.
func (e *Engine) Approve(in document.Document) (document.Document, Result) {
	const ev = document.EventApprove
	e.start(ev, &in)
	if in.State != document.StateInRev {
		return in, e.fail(ev, &in, CodeInvalidState, "approval requires state IN_REV, document is %s", in.State)
	}
	dirs, res := e.dirs(ev, &in)
	if !res.OK {
		return in, res
	}

	doc := in
	cur := doc.Revision
	p := archive.PathsFor(dirs, &doc, cur)
	relModel := or(doc.RELPath, p.RELModel)
	relDrawing := or(doc.RELDrawingPath, p.RELDrawing)
	inrevModel := or(doc.InRevPath, p.InRevModel)
	inrevDrawing := or(doc.InRevDrawingPath, p.InRevDrawing)

	if fsops.Exists(relModel) && fsops.Exists(p.RevModel) {
		return in, e.fail(ev, &in, CodeRevisionExists, "revision already archived: %s", p.RevModel)
	}
	if fsops.Exists(relDrawing) && fsops.Exists(p.RevDrawing) {
		return in, e.fail(ev, &in, CodeRevisionExists, "drawing revision already archived: %s", p.RevDrawing)
	}
	if fsops.Exists(relModel) && !fsops.Exists(inrevModel) {
		return in, e.fail(ev, &in, CodeSourceMissing, "in-revision model missing: %s", inrevModel)
	}
	if fsops.Exists(relDrawing) && !fsops.Exists(inrevDrawing) {
		return in, e.fail(ev, &in, CodeSourceMissing, "in-revision drawing missing: %s", inrevDrawing)
	}

	var undo undoLog
	steps := []struct {
		src, dst  string
		overwrite bool
		what      string
	}{
		{relModel, p.RevModel, false, "archiving model"},
		{relDrawing, p.RevDrawing, false, "archiving drawing"},
		{inrevModel, p.RELModel, true, "promoting model"},
		{inrevDrawing, p.RELDrawing, true, "promoting drawing"},
	}
	moved := make([]bool, len(steps))
	for i, s := range steps {
		ok, err := e.move(&undo, s.src, s.dst, s.overwrite)
		if err != nil {
			e.compensate(ev, &in, &undo)
			return in, e.fail(ev, &in, CodeIOError, "%s: %v", s.what, err)
		}
		if ok {
			e.ops.SetReadOnlyBestEffort(s.dst, true)
		}
		moved[i] = ok
	}
	if moved[2] {
		doc.RELPath = p.RELModel
	}
	if moved[3] {
		doc.RELDrawingPath = p.RELDrawing
	}

	doc.Revision = cur + 1
	doc.State = document.StateREL
	doc.InRevPath, doc.InRevDrawingPath = "", ""
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "approved %s, now rev %02d", doc.Code, doc.Revision)
}

// Cancel deletes the in-revision copies and returns to REL with the
// revision unchanged. If a copy cannot be deleted the state is kept.
func (e *Engine) Cancel(in document.Document) (document.Document, Result) {
	const ev = document.EventCancel
	e.start(ev, &in)
	if in.State != document.StateInRev {
		return in, e.fail(ev, &in, CodeInvalidState, "cancel requires state IN_REV, document is %s", in.State)
	}

	for _, path := range []string{in.InRevPath, in.InRevDrawingPath} {
		if path == "" {
			continue
		}
		if _, err := e.ops.Delete(path); err != nil {
			return in, e.fail(ev, &in, CodeCleanupFailed, "cannot delete in-revision copy: %v", err)
		}
	}

	doc := in
	doc.InRevPath, doc.InRevDrawingPath = "", ""
	doc.State = document.StateREL
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "revision cancelled, %s back to REL rev %02d", doc.Code, doc.Revision)
}

// Obsolete write-protects every file of the document and records the
// current state for Restore.
func (e *Engine) Obsolete(in document.Document) (document.Document, Result) {
	const ev = document.EventObsolete
	e.start(ev, &in)
	if in.State == document.StateOBS {
		return in, e.fail(ev, &in, CodeInvalidState, "document is already OBS")
	}

	doc := in
	e.applyPermissions(&doc, document.StateOBS)
	doc.ObsPrevState = doc.State
	doc.State = document.StateOBS
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "%s set obsolete (was %s)", doc.Code, doc.ObsPrevState)
}

// Restore returns an OBS document to its recorded prior state and
// re-applies that state's permissions.
func (e *Engine) Restore(in document.Document) (document.Document, Result) {
	const ev = document.EventRestore
	e.start(ev, &in)
	if in.State != document.StateOBS {
		return in, e.fail(ev, &in, CodeInvalidState, "restore requires state OBS, document is %s", in.State)
	}
	if !in.ObsPrevState.Restorable() {
		return in, e.fail(ev, &in, CodeInvalidPriorState, "no valid prior state recorded (%q)", in.ObsPrevState)
	}

	doc := in
	doc.State = doc.ObsPrevState
	doc.ObsPrevState = ""
	e.applyPermissions(&doc, doc.State)
	doc.UpdatedAt = e.now().UTC()
	return doc, e.succeed(ev, &doc, "%s restored to %s", doc.Code, doc.State)
}

// applyPermissions write-protects all files, then unlocks the working
// copies of WIP and IN_REV.
func (e *Engine) applyPermissions(doc *document.Document, state document.State) {
	for _, p := range doc.Paths() {
		e.ops.SetReadOnlyBestEffort(p, true)
	}
	switch state {
	case document.StateWIP:
		e.ops.SetReadOnlyBestEffort(doc.WIPPath, false)
		e.ops.SetReadOnlyBestEffort(doc.WIPDrawingPath, false)
	case document.StateInRev:
		e.ops.SetReadOnlyBestEffort(doc.InRevPath, false)
		e.ops.SetReadOnlyBestEffort(doc.InRevDrawingPath, false)
	}
}

func (e *Engine) dirs(ev document.EventType, doc *document.Document) (archive.Dirs, Result) {
	d, err := e.resolver.EnsureDirs(doc)
	if errors.Is(err, archive.ErrNotConfigured) {
		return d, e.fail(ev, doc, CodeArchiveNotConfigured, "archive root not configured")
	}
	if err != nil {
		return d, e.fail(ev, doc, CodeIOError, "preparing archive folders: %v", err)
	}
	return d, Result{OK: true, Code: CodeOK}
}

// move runs a journaled move and records its inverse. It reports whether
// a file was actually moved.
func (e *Engine) move(undo *undoLog, src, dst string, overwrite bool) (bool, error) {
	out, err := e.ops.Move(src, dst, overwrite)
	if err != nil {
		return false, err
	}
	if out == fsops.Skipped {
		return false, nil
	}
	undo.push(src, dst)
	return true, nil
}

// compensate moves files back in reverse order. It is best effort: the
// transition still fails, and anything left behind is in the journal.
func (e *Engine) compensate(ev document.EventType, doc *document.Document, undo *undoLog) {
	for i := len(undo.moves) - 1; i >= 0; i-- {
		m := undo.moves[i]
		if _, err := e.ops.Move(m.dst, m.src, false); err != nil {
			e.ops.Journal().Event().Str("code", doc.Code).Str("src", m.dst).Str("dst", m.src).Err(err).Msg("WF COMPENSATE FAIL " + string(ev))
			continue
		}
		e.ops.Journal().Event().Str("code", doc.Code).Str("src", m.dst).Str("dst", m.src).Msg("WF COMPENSATE " + string(ev))
	}
}

func (e *Engine) start(ev document.EventType, doc *document.Document) {
	e.ops.Journal().Event().
		Str("code", doc.Code).
		Str("state", string(doc.State)).
		Str("rev", fmt.Sprintf("%02d", doc.Revision)).
		Msg("WF START " + string(ev))
}

func (e *Engine) fail(ev document.EventType, doc *document.Document, code Code, format string, args ...any) Result {
	res := failure(code, format, args...)
	e.ops.Journal().Event().
		Str("code", doc.Code).
		Str("result", string(code)).
		Str("reason", res.Message).
		Msg("WF FAIL " + string(ev))
	return res
}

func (e *Engine) succeed(ev document.EventType, doc *document.Document, format string, args ...any) Result {
	e.ops.Journal().Event().
		Str("code", doc.Code).
		Str("new_state", string(doc.State)).
		Str("rev", fmt.Sprintf("%02d", doc.Revision)).
		Msg("WF OK " + string(ev))
	return success(format, args...)
}

type undoLog struct {
	moves []struct{ src, dst string }
}

func (u *undoLog) push(src, dst string) {
	u.moves = append(u.moves, struct{ src, dst string }{src, dst})
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
