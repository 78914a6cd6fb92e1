package workflow

import (
	"context"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
)

// DocumentStore loads and saves documents.
type DocumentStore interface {
	Get(ctx context.Context, code string) (*document.Document, error)
	Update(ctx context.Context, doc *document.Document) (int64, error)
}

// NoteStore appends state notes.
type NoteStore interface {
	Append(ctx context.Context, note *document.StateNote) (int64, error)
}

// Locker grants document locks.
type Locker interface {
	Acquire(ctx context.Context, req lock.AcquireRequest) (lock.AcquireResult, error)
	Release(ctx context.Context, code, sessionID string) (bool, error)
}

// ActivityRecorder writes audit entries.
type ActivityRecorder interface {
	Record(ctx context.Context, actor activity.Actor, action, code string, status activity.Status, message string, details map[string]any) error
}

// Transitioner runs a transition on a document value.
type Transitioner interface {
	Apply(event document.EventType, doc document.Document) (document.Document, Result)
}
