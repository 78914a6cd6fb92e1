package lock

import "time"

const (
	// DefaultTTL is used when the caller passes no TTL.
	DefaultTTL = 20 * time.Minute
	// MinTTL is the shortest lease granted.
	MinTTL = 10 * time.Second
)

// Holder identifies the session owning a lock.
type Holder struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Host      string    `json:"host"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock is a live advisory lock on a document code.
type Lock struct {
	Code       string    `json:"code"`
	Holder     Holder    `json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Status is the outcome of an acquire attempt.
type Status string

const (
	StatusAcquired    Status = "ACQUIRED"
	StatusRefreshed   Status = "REFRESHED"
	StatusHeldByOther Status = "HELD_BY_OTHER"
)

// AcquireResult reports the acquire outcome. For StatusHeldByOther, Lock
// describes the other holder.
type AcquireResult struct {
	Status Status `json:"status"`
	Lock   Lock   `json:"lock"`
}

// Held reports whether the caller now owns the lock.
func (r AcquireResult) Held() bool {
	return r.Status == StatusAcquired || r.Status == StatusRefreshed
}
