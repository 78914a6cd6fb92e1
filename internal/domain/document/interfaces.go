package document

import (
	"context"
	"time"
)

// Repository persists documents. Mutating calls return the catalog tick
// after the write. Update writes the lifecycle columns (state, revision,
// paths) and leaves the description alone; UpdateDescription writes only
// the description.
type Repository interface {
	Create(ctx context.Context, doc *Document) (int64, error)
	Get(ctx context.Context, code string) (*Document, error)
	Update(ctx context.Context, doc *Document) (int64, error)
	UpdateDescription(ctx context.Context, code, description string, at time.Time) (int64, error)
	Search(ctx context.Context, filter SearchFilter) ([]Document, error)
	SetCheckout(ctx context.Context, code, user, host string, at time.Time) (int64, error)
	ClearCheckout(ctx context.Context, code, user string, force bool) (int64, error)
}

// PropertyRepository persists custom property values.
type PropertyRepository interface {
	Set(ctx context.Context, code, name, value string) (int64, error)
	List(ctx context.Context, code string) (map[string]string, error)
	DeleteProperty(ctx context.Context, name string) (int64, error)
}

// NoteRepository persists state notes.
type NoteRepository interface {
	Append(ctx context.Context, note *StateNote) (int64, error)
	List(ctx context.Context, code string, limit int) ([]StateNote, error)
}

// Allocator hands out sequence and version numbers.
type Allocator interface {
	AllocateSequence(ctx context.Context, mmm, gggg, vvv string, docType DocType) (int, error)
	AllocateVersion(ctx context.Context, mmm, gggg string, docType DocType) (int, error)
}

// Workspace prepares the archive folders for a new document and fills in
// its WIP paths.
type Workspace interface {
	PrepareWIP(doc *Document) error
}
