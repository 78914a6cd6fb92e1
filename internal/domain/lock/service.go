package lock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Service grants TTL-bound advisory locks keyed by document code.
type Service struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a lock service with the default lease ttl.
func NewService(repo Repository, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{repo: repo, ttl: clampTTL(ttl), now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// AcquireRequest identifies the caller. TTL zero means the service default.
// KeepLease leaves the expiry of a lock the session already holds as it is,
// so an operation run under someone's explicit lease does not change it.
type AcquireRequest struct {
	Code      string
	SessionID string
	UserID    string
	Host      string
	TTL       time.Duration
	KeepLease bool
}

// Acquire takes or refreshes the lock on a code. Contention is reported
// through the result status, not as an error.
func (s *Service) Acquire(ctx context.Context, req AcquireRequest) (AcquireResult, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Code, validation.Required),
		validation.Field(&req.SessionID, validation.Required),
	); err != nil {
		return AcquireResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ttl := s.ttl
	if req.TTL != 0 {
		ttl = clampTTL(req.TTL)
	}
	now := s.now().UTC()
	res, err := s.repo.Acquire(ctx, Lock{
		Code: req.Code,
		Holder: Holder{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Host:      req.Host,
			ExpiresAt: now.Add(ttl),
		},
		AcquiredAt: now,
		UpdatedAt:  now,
	}, now, req.KeepLease)
	if err != nil {
		return AcquireResult{}, fmt.Errorf("acquiring lock: %w", err)
	}
	if !res.Held() {
		s.logger.Info("lock contended", "code", req.Code, "session_id", req.SessionID, "holder", res.Lock.Holder.SessionID)
	}
	return res, nil
}

// MustAcquire is Acquire that turns contention into a *HeldError.
func (s *Service) MustAcquire(ctx context.Context, req AcquireRequest) (AcquireResult, error) {
	res, err := s.Acquire(ctx, req)
	if err != nil {
		return res, err
	}
	if !res.Held() {
		return res, &HeldError{Code: res.Lock.Code, Holder: res.Lock.Holder}
	}
	return res, nil
}

// Release drops the lock if sessionID owns it.
func (s *Service) Release(ctx context.Context, code, sessionID string) (bool, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(sessionID) == "" {
		return false, ErrInvalidInput
	}
	return s.repo.Release(ctx, strings.TrimSpace(code), strings.TrimSpace(sessionID))
}

// ReleaseAll drops every lock held by sessionID.
func (s *Service) ReleaseAll(ctx context.Context, sessionID string) (int, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, ErrInvalidInput
	}
	n, err := s.repo.ReleaseAll(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return 0, fmt.Errorf("releasing session locks: %w", err)
	}
	if n > 0 {
		s.logger.Info("session locks released", "session_id", sessionID, "count", n)
	}
	return n, nil
}

// ListActive purges expired locks and returns the live ones.
func (s *Service) ListActive(ctx context.Context) ([]Lock, error) {
	return s.repo.ListActive(ctx, s.now().UTC())
}
