package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/pdmvault/internal/repository"
)

// Service handles catalog operations on documents outside the workflow.
type Service struct {
	repo      Repository
	props     PropertyRepository
	notes     NoteRepository
	alloc     Allocator
	workspace Workspace
	logger    *slog.Logger
}

// NewService creates a new document service.
func NewService(repo Repository, props PropertyRepository, notes NoteRepository, alloc Allocator, workspace Workspace, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, props: props, notes: notes, alloc: alloc, workspace: workspace, logger: logger}
}

// CreateRequest defines document creation inputs.
type CreateRequest struct {
	DocType     DocType
	MMM         string
	GGGG        string
	VVV         string
	Description string
}

// Create allocates a code and inserts a WIP document at revision 0.
// It returns the document and the catalog tick after the insert.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Document, int64, error) {
	if req.DocType != "" {
		t, err := ParseDocType(string(req.DocType))
		if err != nil {
			return nil, 0, err
		}
		req.DocType = t
	}
	if err := validateCreateRequest(&req); err != nil {
		return nil, 0, err
	}

	mmm, err := NormalizeMMM(req.MMM)
	if err != nil {
		return nil, 0, err
	}
	var gggg, vvv string
	if req.DocType != DocTypeMachine {
		if gggg, err = NormalizeGGGG(req.GGGG); err != nil {
			return nil, 0, err
		}
	}
	if !req.DocType.Versioned() {
		if vvv, err = NormalizeVVV(req.VVV); err != nil {
			return nil, 0, err
		}
	}

	var seq int
	if req.DocType.Versioned() {
		seq, err = s.alloc.AllocateVersion(ctx, mmm, gggg, req.DocType)
	} else {
		seq, err = s.alloc.AllocateSequence(ctx, mmm, gggg, vvv, req.DocType)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("allocating code: %w", err)
	}

	now := time.Now().UTC()
	doc := &Document{
		Code:        BuildCode(req.DocType, mmm, gggg, vvv, seq),
		DocType:     req.DocType,
		MMM:         mmm,
		GGGG:        gggg,
		Seq:         seq,
		VVV:         vvv,
		Revision:    0,
		State:       StateWIP,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.workspace != nil {
		if err := s.workspace.PrepareWIP(doc); err != nil {
			return nil, 0, fmt.Errorf("preparing archive folders: %w", err)
		}
	}

	tick, err := s.repo.Create(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, 0, fmt.Errorf("%w: %s", ErrDuplicateCode, doc.Code)
		}
		return nil, 0, fmt.Errorf("creating document: %w", err)
	}
	s.logger.Info("document created", "code", doc.Code, "doc_type", doc.DocType, "tick", tick)
	return doc, tick, nil
}

// Get fetches a document by code.
func (s *Service) Get(ctx context.Context, code string) (*Document, error) {
	doc, err := s.repo.Get(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// Search lists documents matching the filter.
func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]Document, error) {
	if filter.DocType != "" {
		t, err := ParseDocType(string(filter.DocType))
		if err != nil {
			return nil, err
		}
		filter.DocType = t
	}
	if filter.State != "" {
		st, err := ParseState(string(filter.State))
		if err != nil {
			return nil, err
		}
		filter.State = st
	}
	filter.MMM = upper.String(strings.TrimSpace(filter.MMM))
	filter.GGGG = upper.String(strings.TrimSpace(filter.GGGG))
	filter.VVV = upper.String(strings.TrimSpace(filter.VVV))
	return s.repo.Search(ctx, filter)
}

// UpdateDescription replaces the free-text description.
func (s *Service) UpdateDescription(ctx context.Context, code, description string) (int64, error) {
	if len(description) > maxDescriptionLen {
		return 0, fmt.Errorf("%w: description longer than %d", ErrInvalidInput, maxDescriptionLen)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrInvalidInput
	}
	tick, err := s.repo.UpdateDescription(ctx, code, strings.TrimSpace(description), time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrDocumentNotFound
		}
		return 0, fmt.Errorf("updating description: %w", err)
	}
	return tick, nil
}

// Checkout marks the document as being edited by user on host.
// A user re-checking out their own document refreshes the timestamp.
func (s *Service) Checkout(ctx context.Context, code, user, host string) (*Document, int64, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(user) == "" {
		return nil, 0, ErrInvalidInput
	}
	tick, err := s.repo.SetCheckout(ctx, strings.TrimSpace(code), strings.TrimSpace(user), strings.TrimSpace(host), time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrDocumentNotFound
		}
		return nil, 0, err
	}
	doc, err := s.Get(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	return doc, tick, nil
}

// Checkin clears the checkout. Only the owner may check in unless force is set.
func (s *Service) Checkin(ctx context.Context, code, user string, force bool) (*Document, int64, error) {
	if strings.TrimSpace(code) == "" {
		return nil, 0, ErrInvalidInput
	}
	tick, err := s.repo.ClearCheckout(ctx, strings.TrimSpace(code), strings.TrimSpace(user), force)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrDocumentNotFound
		}
		return nil, 0, err
	}
	doc, err := s.Get(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	return doc, tick, nil
}

// SetProperty stores a custom property value. Names are uppercased.
func (s *Service) SetProperty(ctx context.Context, code, name, value string) (int64, error) {
	name = NormalizePropertyName(name)
	if strings.TrimSpace(code) == "" || name == "" {
		return 0, ErrInvalidInput
	}
	if _, err := s.Get(ctx, code); err != nil {
		return 0, err
	}
	tick, err := s.props.Set(ctx, strings.TrimSpace(code), name, value)
	if err != nil {
		return 0, fmt.Errorf("setting property: %w", err)
	}
	return tick, nil
}

// Properties returns every custom property value of a document.
func (s *Service) Properties(ctx context.Context, code string) (map[string]string, error) {
	return s.props.List(ctx, strings.TrimSpace(code))
}

// DeleteProperty removes a property definition and all of its values.
func (s *Service) DeleteProperty(ctx context.Context, name string) (int64, error) {
	name = NormalizePropertyName(name)
	if name == "" {
		return 0, ErrInvalidInput
	}
	tick, err := s.props.DeleteProperty(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("deleting property: %w", err)
	}
	s.logger.Info("custom property removed", "property", name, "tick", tick)
	return tick, nil
}

// Notes lists the state notes of a document, newest first.
func (s *Service) Notes(ctx context.Context, code string, limit int) ([]StateNote, error) {
	return s.notes.List(ctx, strings.TrimSpace(code), limit)
}
