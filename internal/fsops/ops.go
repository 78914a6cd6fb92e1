// Package fsops implements the archive's file primitives: copy, move and
// delete that refuse to clobber, retry while a file is held open by another
// program, and fall back to copy+delete across volumes.
package fsops

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// Retry defaults for transient sharing/access errors.
const (
	DefaultAttempts = 4
	DefaultBackoff  = 200 * time.Millisecond
)

// Outcome reports what a primitive did.
type Outcome int

const (
	// Done means the operation completed (a move by rename).
	Done Outcome = iota
	// Skipped means the source did not exist.
	Skipped
	// Copied means a move completed through copy+delete.
	Copied
)

// Ops runs file primitives and journals each one.
type Ops struct {
	journal  *Journal
	attempts int
	backoff  time.Duration
	rename   func(oldpath, newpath string) error
}

// Option configures Ops.
type Option func(*Ops)

// WithJournal sets the operation journal.
func WithJournal(j *Journal) Option {
	return func(o *Ops) { o.journal = j }
}

// WithRetry overrides the attempt count and fixed back-off.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *Ops) {
		if attempts > 0 {
			o.attempts = attempts
		}
		o.backoff = backoff
	}
}

// New creates Ops with default retry and no journal.
func New(opts ...Option) *Ops {
	o := &Ops{
		journal:  NopJournal(),
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		rename:   os.Rename,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.journal == nil {
		o.journal = NopJournal()
	}
	return o
}

// Journal returns the operation journal.
func (o *Ops) Journal() *Journal { return o.journal }

// Exists reports whether path names an existing file or folder.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Require returns a SourceMissing error when path does not exist.
func Require(path string) error {
	if path == "" {
		return kindError("stat", path, KindSourceMissing, fs.ErrNotExist)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return kindError("stat", path, KindSourceMissing, err)
		}
		return newOpError("stat", path, err)
	}
	return nil
}

// Copy copies src to dst, keeping the source permissions. A missing source
// is skipped. An existing destination is an AlreadyExists error unless
// overwrite is set, in which case it is deleted first.
func (o *Ops) Copy(src, dst string, overwrite bool) (Outcome, error) {
	o.journal.Event().Str("src", src).Str("dst", dst).Bool("overwrite", overwrite).Msg("FS COPY START")
	if !Exists(src) {
		o.journal.Event().Str("src", src).Msg("FS COPY SKIP (source missing)")
		return Skipped, nil
	}
	if samePath(src, dst) {
		o.journal.Event().Str("path", src).Msg("FS COPY SKIP (same path)")
		return Done, nil
	}
	if err := o.prepareDestination("copy", dst, overwrite); err != nil {
		o.journal.Event().Str("dst", dst).Err(err).Msg("FS COPY FAIL")
		return Done, err
	}
	if err := o.retry(func() error { return copyFile(src, dst) }); err != nil {
		err = newOpError("copy", src, err)
		o.journal.Event().Str("src", src).Str("dst", dst).Err(err).Msg("FS COPY FAIL")
		return Done, err
	}
	o.journal.Event().Str("src", src).Str("dst", dst).Msg("FS COPY OK")
	return Done, nil
}

// Move renames src to dst, falling back to copy+delete when the rename
// crosses volumes. Missing source and overwrite behave as in Copy.
func (o *Ops) Move(src, dst string, overwrite bool) (Outcome, error) {
	o.journal.Event().Str("src", src).Str("dst", dst).Bool("overwrite", overwrite).Msg("FS MOVE START")
	if !Exists(src) {
		o.journal.Event().Str("src", src).Msg("FS MOVE SKIP (source missing)")
		return Skipped, nil
	}
	if samePath(src, dst) {
		o.journal.Event().Str("path", src).Msg("FS MOVE SKIP (same path)")
		return Done, nil
	}
	if err := o.prepareDestination("move", dst, overwrite); err != nil {
		o.journal.Event().Str("dst", dst).Err(err).Msg("FS MOVE FAIL")
		return Done, err
	}

	err := o.retry(func() error { return o.rename(src, dst) })
	if err == nil {
		o.journal.Event().Str("src", src).Str("dst", dst).Msg("FS MOVE OK (rename)")
		return Done, nil
	}
	if !isCrossDevice(err) {
		err = newOpError("move", src, err)
		o.journal.Event().Str("src", src).Str("dst", dst).Err(err).Msg("FS MOVE FAIL")
		return Done, err
	}

	o.journal.Event().Str("src", src).Str("dst", dst).Msg("FS MOVE FALLBACK copy+delete")
	if err := o.retry(func() error { return copyFile(src, dst) }); err != nil {
		err = newOpError("move", src, err)
		o.journal.Event().Str("src", src).Str("dst", dst).Err(err).Msg("FS MOVE FAIL")
		return Done, err
	}
	if err := o.retry(func() error { return removeFile(src) }); err != nil {
		err = newOpError("move", src, err)
		o.journal.Event().Str("src", src).Err(err).Msg("FS MOVE FAIL (source not removed)")
		return Copied, err
	}
	o.journal.Event().Str("src", src).Str("dst", dst).Msg("FS MOVE OK (copy+delete)")
	return Copied, nil
}

// Delete removes path. A missing path is skipped.
func (o *Ops) Delete(path string) (Outcome, error) {
	o.journal.Event().Str("path", path).Msg("FS DELETE START")
	if !Exists(path) {
		o.journal.Event().Str("path", path).Msg("FS DELETE SKIP (missing)")
		return Skipped, nil
	}
	if err := o.retry(func() error { return removeFile(path) }); err != nil {
		err = newOpError("delete", path, err)
		o.journal.Event().Str("path", path).Err(err).Msg("FS DELETE FAIL")
		return Done, err
	}
	o.journal.Event().Str("path", path).Msg("FS DELETE OK")
	return Done, nil
}

// SetReadOnly clears (readOnly=false) or sets the write-protection of path.
func SetReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return newOpError("chmod", path, err)
	}
	mode := info.Mode().Perm()
	if readOnly {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	if mode == info.Mode().Perm() {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return newOpError("chmod", path, err)
	}
	return nil
}

// SetReadOnlyBestEffort is SetReadOnly for non-critical call sites: an
// empty or missing path is ignored and a failure is journaled, not returned.
func (o *Ops) SetReadOnlyBestEffort(path string, readOnly bool) {
	if path == "" || !Exists(path) {
		return
	}
	if err := SetReadOnly(path, readOnly); err != nil {
		o.journal.Event().Str("path", path).Bool("read_only", readOnly).Err(err).Msg("FS CHMOD IGNORED")
	}
}

func (o *Ops) prepareDestination(op, dst string, overwrite bool) error {
	if Exists(dst) {
		if !overwrite {
			return kindError(op, dst, KindAlreadyExists, fs.ErrExist)
		}
		if err := o.retry(func() error { return removeFile(dst) }); err != nil {
			return newOpError(op, dst, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return newOpError(op, filepath.Dir(dst), err)
	}
	return nil
}

func (o *Ops) retry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		if attempt < o.attempts && o.backoff > 0 {
			time.Sleep(o.backoff)
		}
	}
	return err
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}

// removeFile makes path writable first so read-only archive files can be
// removed on platforms that honour the attribute.
func removeFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o200 == 0 {
		_ = os.Chmod(path, info.Mode().Perm()|0o200)
	}
	return os.Remove(path)
}

func samePath(a, b string) bool {
	return NormalizePath(a) == NormalizePath(b)
}
