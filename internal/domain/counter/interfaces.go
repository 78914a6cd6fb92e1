package counter

import (
	"context"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

// Repository allocates counter values. NextSequence and NextVersion must
// each run in a single write transaction.
type Repository interface {
	NextSequence(ctx context.Context, key SequenceKey, docType document.DocType) (int, error)
	PeekSequence(ctx context.Context, key SequenceKey, docType document.DocType) (int, error)
	NextVersion(ctx context.Context, key VersionKey) (int, error)
}
