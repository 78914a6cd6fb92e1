package session

import (
	"time"

	"github.com/rpggio/pdmvault/internal/domain/activity"
)

// Source records where the user id came from.
type Source string

const (
	SourcePDM     Source = "PDM"
	SourceOS      Source = "OS"
	SourceUnknown Source = "UNKNOWN"
)

// Identity is the best-effort identity of one running client process. It
// owns the locks acquired under SessionID.
type Identity struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Host        string    `json:"host"`
	Source      Source    `json:"source"`
	StartedAt   time.Time `json:"started_at"`
}

// Actor converts the identity for the activity log.
func (id Identity) Actor(workspaceID string) activity.Actor {
	return activity.Actor{
		WorkspaceID: workspaceID,
		SessionID:   id.SessionID,
		UserID:      id.UserID,
		UserDisplay: id.DisplayName,
		Host:        id.Host,
	}
}
