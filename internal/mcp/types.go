package mcp

import (
	"time"

	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
)

type SequenceParams struct {
	DocType string `json:"doc_type"`
	MMM     string `json:"mmm"`
	GGGG    string `json:"gggg"`
	VVV     string `json:"vvv,omitempty"`
}

type VersionParams struct {
	DocType string `json:"doc_type"`
	MMM     string `json:"mmm"`
	GGGG    string `json:"gggg,omitempty"`
}

type CreateDocumentParams struct {
	DocType     string `json:"doc_type"`
	MMM         string `json:"mmm"`
	GGGG        string `json:"gggg,omitempty"`
	VVV         string `json:"vvv,omitempty"`
	Description string `json:"description,omitempty"`
}

type GetDocumentParams struct {
	Code string `json:"code"`
}

type SearchDocumentsParams struct {
	Query      string `json:"query,omitempty"`
	MMM        string `json:"mmm,omitempty"`
	GGGG       string `json:"gggg,omitempty"`
	VVV        string `json:"vvv,omitempty"`
	State      string `json:"state,omitempty"`
	DocType    string `json:"doc_type,omitempty"`
	IncludeObs bool   `json:"include_obs,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type TransitionParams struct {
	Code string `json:"code"`
	Note string `json:"note"`
}

type AcquireLockParams struct {
	Code       string `json:"code"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

type ReleaseLockParams struct {
	Code string `json:"code"`
}

type MigrationParams struct {
	Apply bool `json:"apply,omitempty"`
}

type RecentActivityParams struct {
	Code      string `json:"code,omitempty"`
	Action    string `json:"action,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type SequenceResponse struct {
	Seq int `json:"seq"`
	// Code is the code a document created with Seq would get.
	Code string `json:"code"`
}

type VersionResponse struct {
	Version int    `json:"version"`
	Code    string `json:"code"`
}

type CreateDocumentResponse struct {
	Document document.Document `json:"document"`
	Tick     int64             `json:"tick"`
}

type SearchDocumentsResponse struct {
	Documents []document.Document `json:"documents"`
}

type AcquireLockResponse struct {
	Status lock.Status `json:"status"`
	Lock   lock.Lock   `json:"lock"`
}

type ReleaseLockResponse struct {
	Released bool `json:"released"`
}

type ListLocksResponse struct {
	Locks []lock.Lock `json:"locks"`
}

type RecentActivityResponse struct {
	Activity []ActivityEntryResponse `json:"activity"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	User      string    `json:"user,omitempty"`
	Host      string    `json:"host,omitempty"`
	Action    string    `json:"action"`
	Code      string    `json:"code,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Details   string    `json:"details,omitempty"`
}
