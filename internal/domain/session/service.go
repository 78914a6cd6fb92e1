package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/pdmvault/internal/domain/activity"
)

// Service opens and closes client sessions.
type Service struct {
	locks       LockReleaser
	activity    ActivityRecorder
	workspaceID string
	logger      *slog.Logger
}

// NewService creates a new session service.
func NewService(locks LockReleaser, recorder ActivityRecorder, workspaceID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{locks: locks, activity: recorder, workspaceID: workspaceID, logger: logger}
}

// Start resolves the process identity and records the session start.
func (s *Service) Start(ctx context.Context, userHint string) Identity {
	id := ResolveIdentity(userHint)
	s.record(ctx, id, activity.ActionSessionStart, map[string]any{"source": id.Source})
	s.logger.Info("session started", "session_id", id.SessionID, "user", id.UserID, "host", id.Host)
	return id
}

// Close releases every lock held by the session so a clean exit leaves no
// orphans. It returns the number of locks released.
func (s *Service) Close(ctx context.Context, id Identity) (int, error) {
	if strings.TrimSpace(id.SessionID) == "" {
		return 0, ErrInvalidInput
	}
	n, err := s.locks.ReleaseAll(ctx, id.SessionID)
	if err != nil {
		return 0, fmt.Errorf("closing session: %w", err)
	}
	s.record(ctx, id, activity.ActionSessionEnd, map[string]any{"released_locks": n})
	s.logger.Info("session closed", "session_id", id.SessionID, "released_locks", n)
	return n, nil
}

// Actor returns the activity actor for id in this workspace.
func (s *Service) Actor(id Identity) activity.Actor {
	return id.Actor(s.workspaceID)
}

func (s *Service) record(ctx context.Context, id Identity, action string, details map[string]any) {
	if s.activity == nil {
		return
	}
	// Audit write failures are non-critical; Record already logs them.
	_ = s.activity.Record(ctx, id.Actor(s.workspaceID), action, "", activity.StatusOK, "", details)
}
