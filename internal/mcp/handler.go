package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/workflow"
)

// Handler dispatches MCP tool calls to the domain services.
type Handler struct {
	svc         Services
	workspaceID string
	logger      *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, workspaceID string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: services, workspaceID: workspaceID, logger: logger}
}

// Handle runs one tool. The caller identity comes from ctx.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "allocate_sequence", "peek_sequence":
		var req SequenceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		docType, err := document.ParseDocType(req.DocType)
		if err != nil {
			return nil, mapError(err)
		}
		next := h.svc.Counters.AllocateSequence
		if method == "peek_sequence" {
			next = h.svc.Counters.PeekSequence
		}
		seq, err := next(ctx, req.MMM, req.GGGG, req.VVV, docType)
		if err != nil {
			return nil, mapError(err)
		}
		return SequenceResponse{Seq: seq, Code: previewCode(docType, req.MMM, req.GGGG, req.VVV, seq)}, nil
	case "allocate_version":
		var req VersionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		docType, err := document.ParseDocType(req.DocType)
		if err != nil {
			return nil, mapError(err)
		}
		ver, err := h.svc.Counters.AllocateVersion(ctx, req.MMM, req.GGGG, docType)
		if err != nil {
			return nil, mapError(err)
		}
		return VersionResponse{Version: ver, Code: previewCode(docType, req.MMM, req.GGGG, "", ver)}, nil
	case "create_document":
		var req CreateDocumentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc, tick, err := h.svc.Documents.Create(ctx, document.CreateRequest{
			DocType:     document.DocType(req.DocType),
			MMM:         req.MMM,
			GGGG:        req.GGGG,
			VVV:         req.VVV,
			Description: req.Description,
		})
		if err != nil {
			return nil, mapError(err)
		}
		h.record(ctx, activity.ActionDocumentCreate, doc.Code, activity.StatusOK, "document created", map[string]any{"doc_type": doc.DocType})
		return CreateDocumentResponse{Document: *doc, Tick: tick}, nil
	case "get_document":
		var req GetDocumentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc, err := h.svc.Documents.Get(ctx, req.Code)
		if err != nil {
			return nil, mapError(err)
		}
		return doc, nil
	case "search_documents":
		var req SearchDocumentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		filter := document.SearchFilter{
			Query:      req.Query,
			MMM:        req.MMM,
			GGGG:       req.GGGG,
			VVV:        req.VVV,
			IncludeObs: req.IncludeObs,
			Limit:      req.Limit,
		}
		if req.State != "" {
			st, err := document.ParseState(req.State)
			if err != nil {
				return nil, mapError(err)
			}
			filter.State = st
		}
		if req.DocType != "" {
			t, err := document.ParseDocType(req.DocType)
			if err != nil {
				return nil, mapError(err)
			}
			filter.DocType = t
		}
		docs, err := h.svc.Documents.Search(ctx, filter)
		if err != nil {
			return nil, mapError(err)
		}
		if docs == nil {
			docs = []document.Document{}
		}
		return SearchDocumentsResponse{Documents: docs}, nil
	case "release_wip", "create_inrev", "approve_inrev", "cancel_inrev", "set_obsolete", "restore_obsolete":
		var req TransitionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		out, err := h.transition(method)(ctx, workflow.Request{
			Code:    req.Code,
			Note:    req.Note,
			Session: getIdentity(ctx),
		})
		if err != nil {
			return nil, mapError(err)
		}
		return out, nil
	case "acquire_document_lock":
		var req AcquireLockParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id := getIdentity(ctx)
		res, err := h.svc.Locks.Acquire(ctx, lock.AcquireRequest{
			Code:      req.Code,
			SessionID: id.SessionID,
			UserID:    id.UserID,
			Host:      id.Host,
			TTL:       time.Duration(req.TTLSeconds) * time.Second,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return AcquireLockResponse{Status: res.Status, Lock: res.Lock}, nil
	case "release_document_lock":
		var req ReleaseLockParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		released, err := h.svc.Locks.Release(ctx, req.Code, getIdentity(ctx).SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return ReleaseLockResponse{Released: released}, nil
	case "list_document_locks":
		locks, err := h.svc.Locks.ListActive(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if locks == nil {
			locks = []lock.Lock{}
		}
		return ListLocksResponse{Locks: locks}, nil
	case "run_archive_layout_migration":
		var req MigrationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rep, err := h.svc.Migrator.Run(ctx, req.Apply)
		if err != nil {
			h.record(ctx, activity.ActionMigration, "", activity.StatusFail, err.Error(), map[string]any{"apply": req.Apply})
			return nil, mapError(err)
		}
		status := activity.StatusOK
		if !rep.OK {
			status = activity.StatusFail
		}
		h.record(ctx, activity.ActionMigration, "", status, "archive layout migration", map[string]any{
			"apply":         req.Apply,
			"moves_planned": rep.MovesPlanned,
			"moves_done":    rep.MovesDone,
			"conflicts":     len(rep.Conflicts),
			"errors":        len(rep.Errors),
		})
		return rep, nil
	case "recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, activity.ListActivityOptions{
			Code:      req.Code,
			Action:    req.Action,
			SessionID: req.SessionID,
			Limit:     req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				SessionID: entry.SessionID,
				User:      entry.UserID,
				Host:      entry.Host,
				Action:    entry.Action,
				Code:      entry.Code,
				Status:    string(entry.Status),
				Message:   entry.Message,
				Details:   entry.Details,
			})
		}
		return RecentActivityResponse{Activity: resp}, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (h *Handler) transition(method string) func(context.Context, workflow.Request) (workflow.Outcome, error) {
	wf := h.svc.Workflow
	switch method {
	case "release_wip":
		return wf.ReleaseWIP
	case "create_inrev":
		return wf.CreateInRev
	case "approve_inrev":
		return wf.ApproveInRev
	case "cancel_inrev":
		return wf.CancelInRev
	case "set_obsolete":
		return wf.SetObsolete
	}
	return wf.RestoreObsolete
}

// record writes an activity entry. It is non-critical: failures are logged
// and dropped.
func (h *Handler) record(ctx context.Context, action, code string, status activity.Status, message string, details map[string]any) {
	if h.svc.Activity == nil {
		return
	}
	actor := getIdentity(ctx).Actor(h.workspaceID)
	if err := h.svc.Activity.Record(ctx, actor, action, code, status, message, details); err != nil {
		h.logger.Warn("activity not recorded", "action", action, "code", code, "error", err)
	}
}

// previewCode builds the code for a freshly allocated number. Invalid
// segments were already rejected by the allocator.
func previewCode(docType document.DocType, mmm, gggg, vvv string, n int) string {
	m, _ := document.NormalizeMMM(mmm)
	g, _ := document.NormalizeGGGG(gggg)
	v, _ := document.NormalizeVVV(vvv)
	return document.BuildCode(docType, m, g, v, n)
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("decoding arguments: %v", err)}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
