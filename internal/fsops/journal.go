package fsops

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Journal is the append-only operation log. Every line carries a timestamp,
// a message such as "FS MOVE OK (rename)" and key=value fields. Write
// failures are dropped: the journal is diagnostic only.
type Journal struct {
	log  zerolog.Logger
	file *os.File
}

// OpenJournal appends to path, creating it and its folder. An empty path
// returns a journal that discards everything.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return NopJournal(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newOpError("journal", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, newOpError("journal", path, err)
	}
	j := NewJournal(f)
	j.file = f
	return j, nil
}

// NewJournal writes journal lines to w.
func NewJournal(w io.Writer) *Journal {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
	}
	return &Journal{log: zerolog.New(cw).With().Timestamp().Logger()}
}

// NopJournal discards every line.
func NopJournal() *Journal {
	return &Journal{log: zerolog.Nop()}
}

// Event starts a journal line; finish it with Msg.
func (j *Journal) Event() *zerolog.Event {
	if j == nil {
		return nil
	}
	return j.log.Log()
}

// Close closes the underlying file, if any.
func (j *Journal) Close() error {
	if j == nil || j.file == nil {
		return nil
	}
	return j.file.Close()
}
