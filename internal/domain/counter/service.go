package counter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

// Service normalizes allocation requests and delegates to the repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new allocation service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// AllocateSequence reserves the next part (ascending) or assembly
// (descending) number for the key.
func (s *Service) AllocateSequence(ctx context.Context, mmm, gggg, vvv string, docType document.DocType) (int, error) {
	key, docType, err := sequenceKey(mmm, gggg, vvv, docType)
	if err != nil {
		return 0, err
	}
	seq, err := s.repo.NextSequence(ctx, key, docType)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("sequence allocated", "mmm", key.MMM, "gggg", key.GGGG, "vvv", key.VVV, "doc_type", docType, "seq", seq)
	return seq, nil
}

// PeekSequence returns the value AllocateSequence would return, without
// mutating the counter.
func (s *Service) PeekSequence(ctx context.Context, mmm, gggg, vvv string, docType document.DocType) (int, error) {
	key, docType, err := sequenceKey(mmm, gggg, vvv, docType)
	if err != nil {
		return 0, err
	}
	return s.repo.PeekSequence(ctx, key, docType)
}

// AllocateVersion reserves the next MACHINE or GROUP version number.
func (s *Service) AllocateVersion(ctx context.Context, mmm, gggg string, docType document.DocType) (int, error) {
	t, err := document.ParseDocType(string(docType))
	if err != nil || !t.Versioned() {
		return 0, fmt.Errorf("%w: version counters exist only for MACHINE and GROUP, got %q", ErrInvalidInput, docType)
	}
	m, err := document.NormalizeMMM(mmm)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := VersionKey{MMM: m, DocType: t}
	if t == document.DocTypeGroup {
		if key.GGGG, err = document.NormalizeGGGG(gggg); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	ver, err := s.repo.NextVersion(ctx, key)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("version allocated", "mmm", key.MMM, "gggg", key.GGGG, "doc_type", t, "ver", ver)
	return ver, nil
}

func sequenceKey(mmm, gggg, vvv string, docType document.DocType) (SequenceKey, document.DocType, error) {
	t, err := document.ParseDocType(string(docType))
	if err != nil || t.Versioned() {
		return SequenceKey{}, "", fmt.Errorf("%w: sequences exist only for PART and ASSY, got %q", ErrInvalidInput, docType)
	}
	var key SequenceKey
	if key.MMM, err = document.NormalizeMMM(mmm); err != nil {
		return SequenceKey{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if key.GGGG, err = document.NormalizeGGGG(gggg); err != nil {
		return SequenceKey{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if key.VVV, err = document.NormalizeVVV(vvv); err != nil {
		return SequenceKey{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key, t, nil
}
