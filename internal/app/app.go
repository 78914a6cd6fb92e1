// Package app wires the catalog, archive and domain services into one stack.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/config"
	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/machine"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/domain/workflow"
	"github.com/rpggio/pdmvault/internal/fsops"
	"github.com/rpggio/pdmvault/internal/mcp"
	"github.com/rpggio/pdmvault/internal/migrate"
	"github.com/rpggio/pdmvault/internal/sqlite"
)

// App holds every service of one workspace.
type App struct {
	Config config.Config
	DB     *sqlite.DB

	Resolver *archive.Resolver
	Ops      *fsops.Ops

	Activity  *activity.Service
	Counters  *counter.Service
	Locks     *lock.Service
	Documents *document.Service
	Machines  *machine.Service
	Workflow  *workflow.Service
	Sessions  *session.Service
	Migrator  *migrate.Migrator

	journal *fsops.Journal
}

// Open opens the catalog at cfg.DB.Path, migrates it and builds the services.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.Open(ctx, cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	journal, err := fsops.OpenJournal(cfg.Archive.WorkflowLog)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open workflow log: %w", err)
	}
	return build(cfg, db, journal, logger), nil
}

// New builds the services on an already migrated db. Journal lines go to
// journal; nil discards them.
func New(cfg config.Config, db *sqlite.DB, journal io.Writer, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	j := fsops.NopJournal()
	if journal != nil {
		j = fsops.NewJournal(journal)
	}
	return build(cfg, db, j, logger)
}

func build(cfg config.Config, db *sqlite.DB, journal *fsops.Journal, logger *slog.Logger) *App {
	documentRepo := sqlite.NewDocumentRepository(db)
	noteRepo := sqlite.NewNoteRepository(db)

	a := &App{
		Config:   cfg,
		DB:       db,
		Resolver: archive.NewResolver(cfg.Archive.Root),
		Ops:      fsops.New(fsops.WithJournal(journal)),
		journal:  journal,
	}
	a.Activity = activity.NewService(sqlite.NewActivityRepository(db), logger)
	a.Counters = counter.NewService(sqlite.NewCounterRepository(db), logger)
	a.Locks = lock.NewService(sqlite.NewLockRepository(db), cfg.Lock.TTL, logger)
	a.Documents = document.NewService(documentRepo, sqlite.NewPropertyRepository(db), noteRepo, a.Counters, a.Resolver, logger)
	a.Machines = machine.NewService(sqlite.NewMachineRepository(db), logger)
	a.Workflow = workflow.NewService(documentRepo, noteRepo, a.Locks, a.Activity, workflow.NewEngine(a.Resolver, a.Ops), cfg.Workspace.ID, logger)
	a.Sessions = session.NewService(a.Locks, a.Activity, cfg.Workspace.ID, logger)
	a.Migrator = migrate.New(documentRepo, a.Ops, cfg.Archive.Root,
		migrate.WithLegacyRoots(cfg.Archive.LegacyRoots...),
		migrate.WithLogger(logger),
	)
	return a
}

// MCPServices exposes the stack to the MCP server.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Documents: a.Documents,
		Counters:  a.Counters,
		Workflow:  a.Workflow,
		Locks:     a.Locks,
		Activity:  a.Activity,
		Migrator:  a.Migrator,
	}
}

// Close closes the journal and the catalog.
func (a *App) Close() error {
	return errors.Join(a.journal.Close(), a.DB.Close())
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
