package counter

import "github.com/rpggio/pdmvault/internal/domain/document"

// Sequence ranges. Parts count up, assemblies count down, so both can
// share one (mmm, gggg, vvv) key without colliding.
const (
	PartFirst = 1
	PartLast  = 9999
	AssyFirst = 9999
	AssyLast  = 1

	VersionFirst = 1
)

// SequenceKey scopes a part/assembly counter.
type SequenceKey struct {
	MMM  string
	GGGG string
	VVV  string
}

// VersionKey scopes a machine/group version counter. GGGG is empty for
// machines.
type VersionKey struct {
	MMM     string
	GGGG    string
	DocType document.DocType
}
