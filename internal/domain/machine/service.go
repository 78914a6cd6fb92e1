package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/repository"
)

// Service handles machine and group operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new machine service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// AddMachine registers a machine code.
func (s *Service) AddMachine(ctx context.Context, mmm, name string) (*Machine, error) {
	code, err := document.NormalizeMMM(mmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	m := &Machine{MMM: code, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateMachine(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating machine: %w", err)
	}
	return m, nil
}

// ListMachines returns every machine ordered by code.
func (s *Service) ListMachines(ctx context.Context) ([]Machine, error) {
	return s.repo.ListMachines(ctx)
}

// DeleteMachine removes a machine and its groups.
func (s *Service) DeleteMachine(ctx context.Context, mmm string) error {
	code, err := document.NormalizeMMM(mmm)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.DeleteMachine(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMachineNotFound
		}
		return fmt.Errorf("deleting machine: %w", err)
	}
	return nil
}

// AddGroup registers a group under an existing machine.
func (s *Service) AddGroup(ctx context.Context, mmm, gggg, name string) (*Group, error) {
	m, err := document.NormalizeMMM(mmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	g, err := document.NormalizeGGGG(gggg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	grp := &Group{MMM: m, GGGG: g, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateGroup(ctx, grp); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, ErrMachineNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating group: %w", err)
	}
	return grp, nil
}

// ListGroups returns the groups of a machine, or all groups when mmm is empty.
func (s *Service) ListGroups(ctx context.Context, mmm string) ([]Group, error) {
	if strings.TrimSpace(mmm) == "" {
		return s.repo.ListGroups(ctx, "")
	}
	m, err := document.NormalizeMMM(mmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.ListGroups(ctx, m)
}

// DeleteGroup removes one group.
func (s *Service) DeleteGroup(ctx context.Context, mmm, gggg string) error {
	m, err := document.NormalizeMMM(mmm)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	g, err := document.NormalizeGGGG(gggg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.DeleteGroup(ctx, m, g); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("deleting group: %w", err)
	}
	return nil
}
