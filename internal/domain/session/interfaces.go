package session

import (
	"context"

	"github.com/rpggio/pdmvault/internal/domain/activity"
)

// LockReleaser drops every lock held by a session.
type LockReleaser interface {
	ReleaseAll(ctx context.Context, sessionID string) (int, error)
}

// ActivityRecorder writes audit entries.
type ActivityRecorder interface {
	Record(ctx context.Context, actor activity.Actor, action, code string, status activity.Status, message string, details map[string]any) error
}
