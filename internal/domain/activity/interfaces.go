package activity

import "context"

// Repository stores audit entries. Entries are append-only.
type Repository interface {
	Log(ctx context.Context, entry *ActivityEntry) error
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
}
