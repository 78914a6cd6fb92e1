package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/domain/workflow"
	"github.com/rpggio/pdmvault/internal/migrate"
)

// DocumentService defines catalog operations needed by MCP.
type DocumentService interface {
	Create(ctx context.Context, req document.CreateRequest) (*document.Document, int64, error)
	Get(ctx context.Context, code string) (*document.Document, error)
	Search(ctx context.Context, filter document.SearchFilter) ([]document.Document, error)
}

// CounterService defines code allocation operations needed by MCP.
type CounterService interface {
	AllocateSequence(ctx context.Context, mmm, gggg, vvv string, docType document.DocType) (int, error)
	PeekSequence(ctx context.Context, mmm, gggg, vvv string, docType document.DocType) (int, error)
	AllocateVersion(ctx context.Context, mmm, gggg string, docType document.DocType) (int, error)
}

// WorkflowService defines the lifecycle transitions needed by MCP.
type WorkflowService interface {
	ReleaseWIP(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
	CreateInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
	ApproveInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
	CancelInRev(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
	SetObsolete(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
	RestoreObsolete(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
}

// LockService defines document lock operations needed by MCP.
type LockService interface {
	Acquire(ctx context.Context, req lock.AcquireRequest) (lock.AcquireResult, error)
	Release(ctx context.Context, code, sessionID string) (bool, error)
	ListActive(ctx context.Context) ([]lock.Lock, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	Record(ctx context.Context, actor activity.Actor, action, code string, status activity.Status, message string, details map[string]any) error
}

// Migrator runs the archive layout migration.
type Migrator interface {
	Run(ctx context.Context, apply bool) (*migrate.Report, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Documents DocumentService
	Counters  CounterService
	Workflow  WorkflowService
	Locks     LockService
	Activity  ActivityService
	Migrator  Migrator
}

// Config contains server configuration.
type Config struct {
	Services    Services
	Identity    session.Identity
	WorkspaceID string
	Version     string
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
// Every request runs as cfg.Identity: the stdio server is one client process.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "pdmvault",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(identityMiddleware(cfg.Identity))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.WorkspaceID, cfg.Logger))

	return server
}
