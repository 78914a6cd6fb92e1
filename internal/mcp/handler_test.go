package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/domain/workflow"
	"github.com/rpggio/pdmvault/internal/migrate"
)

type documentStub struct {
	createFn func(context.Context, document.CreateRequest) (*document.Document, int64, error)
	getFn    func(context.Context, string) (*document.Document, error)
	searchFn func(context.Context, document.SearchFilter) ([]document.Document, error)
}

func (d documentStub) Create(ctx context.Context, req document.CreateRequest) (*document.Document, int64, error) {
	return d.createFn(ctx, req)
}
func (d documentStub) Get(ctx context.Context, code string) (*document.Document, error) {
	return d.getFn(ctx, code)
}
func (d documentStub) Search(ctx context.Context, filter document.SearchFilter) ([]document.Document, error) {
	return d.searchFn(ctx, filter)
}

type counterStub struct {
	allocateFn func(context.Context, string, string, string, document.DocType) (int, error)
	peekFn     func(context.Context, string, string, string, document.DocType) (int, error)
	versionFn  func(context.Context, string, string, document.DocType) (int, error)
}

func (c counterStub) AllocateSequence(ctx context.Context, mmm, gggg, vvv string, t document.DocType) (int, error) {
	return c.allocateFn(ctx, mmm, gggg, vvv, t)
}
func (c counterStub) PeekSequence(ctx context.Context, mmm, gggg, vvv string, t document.DocType) (int, error) {
	return c.peekFn(ctx, mmm, gggg, vvv, t)
}
func (c counterStub) AllocateVersion(ctx context.Context, mmm, gggg string, t document.DocType) (int, error) {
	return c.versionFn(ctx, mmm, gggg, t)
}

// workflowStub answers every transition with fn, tagging the event.
type workflowStub struct {
	fn func(context.Context, document.EventType, workflow.Request) (workflow.Outcome, error)
}

func (w workflowStub) ReleaseWIP(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventRelease, req)
}
func (w workflowStub) CreateInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventCreateInRev, req)
}
func (w workflowStub) ApproveInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventApprove, req)
}
func (w workflowStub) CancelInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventCancel, req)
}
func (w workflowStub) SetObsolete(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventObsolete, req)
}
func (w workflowStub) RestoreObsolete(ctx context.Context, req workflow.Request) (workflow.Outcome, error) {
	return w.fn(ctx, document.EventRestore, req)
}

type lockStub struct {
	acquireFn func(context.Context, lock.AcquireRequest) (lock.AcquireResult, error)
	releaseFn func(context.Context, string, string) (bool, error)
	listFn    func(context.Context) ([]lock.Lock, error)
}

func (l lockStub) Acquire(ctx context.Context, req lock.AcquireRequest) (lock.AcquireResult, error) {
	return l.acquireFn(ctx, req)
}
func (l lockStub) Release(ctx context.Context, code, sessionID string) (bool, error) {
	return l.releaseFn(ctx, code, sessionID)
}
func (l lockStub) ListActive(ctx context.Context) ([]lock.Lock, error) {
	return l.listFn(ctx)
}

type activityStub struct {
	listFn   func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	recorded []string
}

func (a *activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}
func (a *activityStub) Record(_ context.Context, actor activity.Actor, action, _ string, status activity.Status, _ string, _ map[string]any) error {
	a.recorded = append(a.recorded, actor.SessionID+" "+action+" "+string(status))
	return nil
}

type migratorStub struct {
	runFn func(context.Context, bool) (*migrate.Report, error)
}

func (m migratorStub) Run(ctx context.Context, apply bool) (*migrate.Report, error) {
	return m.runFn(ctx, apply)
}

var testIdentity = session.Identity{SessionID: "host-1-abcdef12", UserID: "alice", Host: "host"}

func identityCtx() context.Context {
	return withIdentity(context.Background(), testIdentity)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func requireAPIError(t *testing.T, err error, code string) *APIError {
	t.Helper()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestHandler_CodeAllocation(t *testing.T) {
	var peeked, allocated int
	h := NewHandler(Services{
		Counters: counterStub{
			allocateFn: func(_ context.Context, mmm, gggg, vvv string, t document.DocType) (int, error) {
				allocated++
				return 7, nil
			},
			peekFn: func(_ context.Context, _, _, _ string, _ document.DocType) (int, error) {
				peeked++
				return 7, nil
			},
			versionFn: func(_ context.Context, _, _ string, t document.DocType) (int, error) {
				if t != document.DocTypeMachine && t != document.DocTypeGroup {
					return 0, counter.ErrInvalidInput
				}
				return 2, nil
			},
		},
	}, "ws", nil)
	ctx := identityCtx()

	res, err := h.Handle(ctx, "peek_sequence", mustJSON(t, SequenceParams{DocType: "prt", MMM: "abc", GGGG: "wxyz"}))
	require.NoError(t, err)
	require.Equal(t, SequenceResponse{Seq: 7, Code: "ABC_WXYZ-0007"}, res)

	res, err = h.Handle(ctx, "allocate_sequence", mustJSON(t, SequenceParams{DocType: "ASSY", MMM: "ABC", GGGG: "WXYZ", VVV: "k01"}))
	require.NoError(t, err)
	require.Equal(t, "ABC_WXYZ-K01-0007", res.(SequenceResponse).Code)
	require.Equal(t, 1, peeked)
	require.Equal(t, 1, allocated)

	res, err = h.Handle(ctx, "allocate_version", mustJSON(t, VersionParams{DocType: "MACHINE", MMM: "ABC"}))
	require.NoError(t, err)
	require.Equal(t, VersionResponse{Version: 2, Code: "ABC-V0002"}, res)

	_, err = h.Handle(ctx, "allocate_version", mustJSON(t, VersionParams{DocType: "PART", MMM: "ABC"}))
	requireAPIError(t, err, "INVALID_INPUT")

	_, err = h.Handle(ctx, "allocate_sequence", mustJSON(t, SequenceParams{DocType: "DRAWING", MMM: "ABC", GGGG: "WXYZ"}))
	requireAPIError(t, err, "INVALID_INPUT")
}

func TestHandler_SequenceExhausted(t *testing.T) {
	h := NewHandler(Services{
		Counters: counterStub{
			allocateFn: func(context.Context, string, string, string, document.DocType) (int, error) {
				return 0, counter.ErrSequenceExhausted
			},
		},
	}, "ws", nil)

	_, err := h.Handle(identityCtx(), "allocate_sequence", mustJSON(t, SequenceParams{DocType: "PART", MMM: "ABC", GGGG: "WXYZ"}))
	requireAPIError(t, err, "SEQUENCE_EXHAUSTED")
}

func TestHandler_Documents(t *testing.T) {
	acts := &activityStub{}
	var gotFilter document.SearchFilter
	h := NewHandler(Services{
		Documents: documentStub{
			createFn: func(_ context.Context, req document.CreateRequest) (*document.Document, int64, error) {
				require.Equal(t, document.DocType("PRT"), req.DocType)
				return &document.Document{Code: "ABC_WXYZ-0001", DocType: document.DocTypePart, State: document.StateWIP}, 4, nil
			},
			getFn: func(_ context.Context, code string) (*document.Document, error) {
				if code != "ABC_WXYZ-0001" {
					return nil, document.ErrDocumentNotFound
				}
				return &document.Document{Code: code}, nil
			},
			searchFn: func(_ context.Context, f document.SearchFilter) ([]document.Document, error) {
				gotFilter = f
				return nil, nil
			},
		},
		Activity: acts,
	}, "ws", nil)
	ctx := identityCtx()

	res, err := h.Handle(ctx, "create_document", mustJSON(t, CreateDocumentParams{DocType: "PRT", MMM: "ABC", GGGG: "WXYZ"}))
	require.NoError(t, err)
	created := res.(CreateDocumentResponse)
	require.Equal(t, "ABC_WXYZ-0001", created.Document.Code)
	require.Equal(t, int64(4), created.Tick)
	require.Equal(t, []string{"host-1-abcdef12 DOC_CREATE OK"}, acts.recorded)

	_, err = h.Handle(ctx, "get_document", mustJSON(t, GetDocumentParams{Code: "ABC_WXYZ-0001"}))
	require.NoError(t, err)

	_, err = h.Handle(ctx, "get_document", mustJSON(t, GetDocumentParams{Code: "NOPE"}))
	requireAPIError(t, err, "DOCUMENT_NOT_FOUND")

	res, err = h.Handle(ctx, "search_documents", mustJSON(t, SearchDocumentsParams{Query: "bracket", State: "in_rev", DocType: "asm", Limit: 5}))
	require.NoError(t, err)
	require.NotNil(t, res.(SearchDocumentsResponse).Documents)
	require.Equal(t, document.SearchFilter{Query: "bracket", State: document.StateInRev, DocType: document.DocTypeAssy, Limit: 5}, gotFilter)

	_, err = h.Handle(ctx, "search_documents", mustJSON(t, SearchDocumentsParams{State: "DRAFT"}))
	requireAPIError(t, err, "INVALID_INPUT")
}

func TestHandler_TransitionsRunAsCaller(t *testing.T) {
	var events []document.EventType
	h := NewHandler(Services{
		Workflow: workflowStub{fn: func(_ context.Context, ev document.EventType, req workflow.Request) (workflow.Outcome, error) {
			require.Equal(t, testIdentity, req.Session)
			require.Equal(t, "ABC_WXYZ-0001", req.Code)
			events = append(events, ev)
			return workflow.Outcome{
				Document: &document.Document{Code: req.Code},
				Result:   workflow.Result{OK: true, Code: workflow.CodeOK},
			}, nil
		}},
	}, "ws", nil)
	ctx := identityCtx()

	for _, method := range []string{"release_wip", "create_inrev", "approve_inrev", "cancel_inrev", "set_obsolete", "restore_obsolete"} {
		res, err := h.Handle(ctx, method, mustJSON(t, TransitionParams{Code: "ABC_WXYZ-0001", Note: "ok to go"}))
		require.NoError(t, err, method)
		require.True(t, res.(workflow.Outcome).Result.OK)
	}
	require.Equal(t, []document.EventType{
		document.EventRelease,
		document.EventCreateInRev,
		document.EventApprove,
		document.EventCancel,
		document.EventObsolete,
		document.EventRestore,
	}, events)
}

func TestHandler_TransitionErrors(t *testing.T) {
	h := NewHandler(Services{
		Workflow: workflowStub{fn: func(_ context.Context, ev document.EventType, req workflow.Request) (workflow.Outcome, error) {
			switch req.Code {
			case "BAD":
				return workflow.Outcome{}, workflow.ErrInvalidInput
			case "LOST":
				return workflow.Outcome{Result: workflow.Result{Code: workflow.CodeIOError}}, workflow.ErrNotPersisted
			}
			return workflow.Outcome{Result: workflow.Result{Code: workflow.CodeInvalidState, Message: "release requires state WIP"}}, nil
		}},
	}, "ws", nil)
	ctx := identityCtx()

	_, err := h.Handle(ctx, "release_wip", mustJSON(t, TransitionParams{Code: "BAD"}))
	requireAPIError(t, err, "INVALID_INPUT")

	_, err = h.Handle(ctx, "release_wip", mustJSON(t, TransitionParams{Code: "LOST", Note: "note"}))
	requireAPIError(t, err, "NOT_PERSISTED")

	res, err := h.Handle(ctx, "release_wip", mustJSON(t, TransitionParams{Code: "ABC_WXYZ-0001", Note: "note"}))
	require.NoError(t, err, "a refused transition is a result, not an error")
	require.Equal(t, workflow.CodeInvalidState, res.(workflow.Outcome).Result.Code)
}

func TestHandler_Locks(t *testing.T) {
	var got lock.AcquireRequest
	h := NewHandler(Services{
		Locks: lockStub{
			acquireFn: func(_ context.Context, req lock.AcquireRequest) (lock.AcquireResult, error) {
				got = req
				return lock.AcquireResult{Status: lock.StatusAcquired, Lock: lock.Lock{Code: req.Code}}, nil
			},
			releaseFn: func(_ context.Context, code, sessionID string) (bool, error) {
				return code == "ABC_WXYZ-0001" && sessionID == testIdentity.SessionID, nil
			},
			listFn: func(context.Context) ([]lock.Lock, error) { return nil, nil },
		},
	}, "ws", nil)
	ctx := identityCtx()

	res, err := h.Handle(ctx, "acquire_document_lock", mustJSON(t, AcquireLockParams{Code: "ABC_WXYZ-0001", TTLSeconds: 60}))
	require.NoError(t, err)
	require.Equal(t, lock.StatusAcquired, res.(AcquireLockResponse).Status)
	require.Equal(t, lock.AcquireRequest{
		Code:      "ABC_WXYZ-0001",
		SessionID: testIdentity.SessionID,
		UserID:    "alice",
		Host:      "host",
		TTL:       time.Minute,
	}, got)

	res, err = h.Handle(ctx, "release_document_lock", mustJSON(t, ReleaseLockParams{Code: "ABC_WXYZ-0001"}))
	require.NoError(t, err)
	require.True(t, res.(ReleaseLockResponse).Released)

	res, err = h.Handle(ctx, "list_document_locks", nil)
	require.NoError(t, err)
	require.NotNil(t, res.(ListLocksResponse).Locks)
}

func TestHandler_Migration(t *testing.T) {
	acts := &activityStub{}
	h := NewHandler(Services{
		Migrator: migratorStub{runFn: func(_ context.Context, apply bool) (*migrate.Report, error) {
			if apply {
				return nil, archive.ErrNotConfigured
			}
			return &migrate.Report{OK: true, MovesPlanned: 3}, nil
		}},
		Activity: acts,
	}, "ws", nil)
	ctx := identityCtx()

	res, err := h.Handle(ctx, "run_archive_layout_migration", nil)
	require.NoError(t, err)
	require.Equal(t, 3, res.(*migrate.Report).MovesPlanned)

	_, err = h.Handle(ctx, "run_archive_layout_migration", mustJSON(t, MigrationParams{Apply: true}))
	requireAPIError(t, err, "ARCHIVE_NOT_CONFIGURED")

	require.Equal(t, []string{
		"host-1-abcdef12 ARCHIVE_MIGRATION OK",
		"host-1-abcdef12 ARCHIVE_MIGRATION FAIL",
	}, acts.recorded)
}

func TestHandler_RecentActivity(t *testing.T) {
	now := time.Now().UTC()
	h := NewHandler(Services{
		Activity: &activityStub{listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
			require.Equal(t, activity.ListActivityOptions{Code: "ABC_WXYZ-0001", Limit: 10}, opts)
			return []activity.ActivityEntry{{
				CreatedAt: now,
				Actor:     activity.Actor{SessionID: "s1", UserID: "bob", Host: "h"},
				Action:    "WF_RELEASE",
				Code:      "ABC_WXYZ-0001",
				Status:    activity.StatusOK,
			}}, nil
		}},
	}, "ws", nil)

	res, err := h.Handle(identityCtx(), "recent_activity", mustJSON(t, RecentActivityParams{Code: "ABC_WXYZ-0001", Limit: 10}))
	require.NoError(t, err)
	entries := res.(RecentActivityResponse).Activity
	require.Len(t, entries, 1)
	require.Equal(t, "bob", entries[0].User)
	require.Equal(t, "WF_RELEASE", entries[0].Action)
}

func TestHandler_UnknownMethodAndBadArguments(t *testing.T) {
	h := NewHandler(Services{}, "ws", nil)

	_, err := h.Handle(identityCtx(), "delete_everything", nil)
	require.Error(t, err)

	_, err = h.Handle(identityCtx(), "get_document", json.RawMessage(`{"code": 12}`))
	requireAPIError(t, err, "INVALID_INPUT")
}

func TestMapError(t *testing.T) {
	held := &lock.HeldError{Code: "X", Holder: lock.Holder{SessionID: "other"}}
	apiErr := MapError(held)
	require.Equal(t, "LOCKED", apiErr.Code)
	require.Equal(t, held.Holder, apiErr.Details)

	require.Equal(t, "DUPLICATE_CODE", MapError(document.ErrDuplicateCode).Code)
	require.Nil(t, MapError(errors.New("disk on fire")))
	require.Nil(t, MapError(nil))
}
