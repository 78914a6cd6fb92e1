// Package logging builds the process logger shared by the server and pdmctl.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// ParseLevel maps debug|info|warn|error to a slog level. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to path, or to fallback when path is
// empty. The returned closer is never nil.
func New(path, level string, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	var w io.Writer = fallback
	var closer io.Closer = nopCloser{}
	if path != "" {
		fw, err := OpenFile(path, maxLogSizeBytes, keepLogSizeBytes)
		if err != nil {
			return nil, nil, err
		}
		w, closer = fw, fw
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FileWriter appends to a log file and trims it to its last keep bytes
// once it grows past max.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
	max  int64
	keep int64
}

// OpenFile opens path for appending, creating its folder.
func OpenFile(path string, max, keep int64) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := &FileWriter{file: file, max: max, keep: keep}
	if err := w.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

// Close closes the file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *FileWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.max || size <= w.keep {
		return nil
	}

	tail := make([]byte, w.keep)
	n, err := w.file.ReadAt(tail, size-w.keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end after the truncate.
	_, err = w.file.Write(tail[:n])
	return err
}
