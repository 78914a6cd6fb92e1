package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/repository"
)

// Service runs transitions under the document lock and persists them.
type Service struct {
	docs        DocumentStore
	notes       NoteStore
	locks       Locker
	activity    ActivityRecorder
	engine      Transitioner
	workspaceID string
	logger      *slog.Logger
}

// NewService creates a workflow service.
func NewService(docs DocumentStore, notes NoteStore, locks Locker, recorder ActivityRecorder, engine Transitioner, workspaceID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		docs:        docs,
		notes:       notes,
		locks:       locks,
		activity:    recorder,
		engine:      engine,
		workspaceID: workspaceID,
		logger:      logger,
	}
}

// Request names the document, the mandatory note and the calling session.
type Request struct {
	Code    string
	Note    string
	Session session.Identity
}

// Outcome is the result of a transition. Document is the persisted
// document on success and the unchanged one otherwise. Holder is set when
// the lock was held by another session.
type Outcome struct {
	Document *document.Document `json:"document"`
	Result   Result             `json:"result"`
	Tick     int64              `json:"tick,omitempty"`
	Holder   *lock.Holder       `json:"holder,omitempty"`
}

// ReleaseWIP runs WIP -> REL.
func (s *Service) ReleaseWIP(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventRelease, req)
}

// CreateInRev runs REL -> IN_REV.
func (s *Service) CreateInRev(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventCreateInRev, req)
}

// ApproveInRev runs IN_REV -> REL with a revision bump.
func (s *Service) ApproveInRev(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventApprove, req)
}

// CancelInRev runs IN_REV -> REL discarding the in-revision copies.
func (s *Service) CancelInRev(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventCancel, req)
}

// SetObsolete moves any live state to OBS.
func (s *Service) SetObsolete(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventObsolete, req)
}

// RestoreObsolete returns an OBS document to its prior state.
func (s *Service) RestoreObsolete(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, document.EventRestore, req)
}

func (s *Service) run(ctx context.Context, event document.EventType, req Request) (Outcome, error) {
	if err := validateRequest(&req); err != nil {
		return Outcome{}, err
	}
	actor := req.Session.Actor(s.workspaceID)
	action := activity.ActionWorkflowPrefix + string(event)

	held, err := s.locks.Acquire(ctx, lock.AcquireRequest{
		Code:      req.Code,
		SessionID: req.Session.SessionID,
		UserID:    req.Session.UserID,
		Host:      req.Session.Host,
		KeepLease: true,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("locking %s: %w", req.Code, err)
	}
	if !held.Held() {
		holder := held.Lock.Holder
		res := failure(CodeLocked, "%s is locked by %s@%s until %s", req.Code, holder.UserID, holder.Host, holder.ExpiresAt.Local().Format("15:04:05"))
		s.record(ctx, actor, action, req.Code, activity.StatusFail, res.Message, map[string]any{"result": res.Code})
		return Outcome{Result: res, Holder: &holder}, nil
	}
	if held.Status == lock.StatusAcquired {
		defer func() {
			if _, err := s.locks.Release(ctx, req.Code, req.Session.SessionID); err != nil {
				s.logger.Warn("lock not released", "code", req.Code, "error", err)
			}
		}()
	}

	doc, err := s.docs.Get(ctx, req.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{}, document.ErrDocumentNotFound
		}
		return Outcome{}, fmt.Errorf("loading %s: %w", req.Code, err)
	}

	before := *doc
	updated, res := s.engine.Apply(event, before)
	details := map[string]any{
		"from":       before.State,
		"to":         updated.State,
		"rev_before": before.Revision,
		"rev_after":  updated.Revision,
		"result":     res.Code,
	}
	if !res.OK {
		s.logger.Info("transition refused", "event", event, "code", req.Code, "result", res.Code, "message", res.Message)
		s.record(ctx, actor, action, req.Code, activity.StatusFail, res.Message, details)
		return Outcome{Document: &before, Result: res}, nil
	}

	tick, err := s.docs.Update(ctx, &updated)
	if err != nil {
		s.logger.Error("transition not persisted", "event", event, "code", req.Code, "error", err)
		s.record(ctx, actor, action, req.Code, activity.StatusFail, "catalog update failed", details)
		return Outcome{Document: &before, Result: failure(CodeIOError, "catalog update failed: %v", err)}, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}

	out := Outcome{Document: &updated, Result: res, Tick: tick}
	noteTick, err := s.notes.Append(ctx, &document.StateNote{
		Code:      updated.Code,
		CreatedAt: updated.UpdatedAt,
		EventType: event,
		FromState: before.State,
		ToState:   updated.State,
		Note:      req.Note,
		RevBefore: before.Revision,
		RevAfter:  updated.Revision,
	})
	if err != nil {
		return out, fmt.Errorf("recording state note: %w", err)
	}
	out.Tick = noteTick

	s.record(ctx, actor, action, req.Code, activity.StatusOK, res.Message, details)
	s.logger.Info("transition applied", "event", event, "code", req.Code, "state", updated.State, "revision", updated.Revision, "tick", out.Tick)
	return out, nil
}

func (s *Service) record(ctx context.Context, actor activity.Actor, action, code string, status activity.Status, message string, details map[string]any) {
	if s.activity == nil {
		return
	}
	// Audit write failures are non-critical; Record already logs them.
	_ = s.activity.Record(ctx, actor, action, code, status, message, details)
}
