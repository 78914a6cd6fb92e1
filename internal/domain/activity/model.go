package activity

import "time"

// Status is the outcome recorded for an action.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Well-known actions. Workflow transitions log as "WF_" + event type.
const (
	ActionSessionStart   = "SESSION_START"
	ActionSessionEnd     = "SESSION_END"
	ActionDocumentCreate = "DOC_CREATE"
	ActionCheckout       = "DOC_CHECKOUT"
	ActionCheckin        = "DOC_CHECKIN"
	ActionMigration      = "ARCHIVE_MIGRATION"
	ActionWorkflowPrefix = "WF_"
)

// Actor identifies who performed an action.
type Actor struct {
	WorkspaceID string `json:"workspace_id"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	UserDisplay string `json:"user_display"`
	Host        string `json:"host"`
}

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Actor
	Action  string `json:"action"`
	Code    string `json:"code,omitempty"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Details string `json:"details_json,omitempty"` // JSON string
}
