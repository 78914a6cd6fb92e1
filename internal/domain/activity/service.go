package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const defaultListLimit = 200

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || strings.TrimSpace(entry.Action) == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = StatusOK
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record builds an entry for actor and logs it. Details are encoded as JSON.
// The activity log is an audit side channel: a failed write is logged and
// returned, and callers on the workflow path ignore it.
func (s *Service) Record(ctx context.Context, actor Actor, action, code string, status Status, message string, details map[string]any) error {
	entry := &ActivityEntry{
		Actor:   actor,
		Action:  action,
		Code:    code,
		Status:  status,
		Message: message,
	}
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding activity details: %w", err)
		}
		entry.Details = string(data)
	}
	if err := s.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity not recorded", "action", action, "code", code, "error", err)
		return err
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	return s.repo.List(ctx, opts)
}
