// Package cli implements pdmctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/app"
	"github.com/rpggio/pdmvault/internal/config"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath      string
	ArchiveRoot string
	User        string
	JSON        bool
	Verbose     bool
}

// NewRootCommand creates the pdmctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "pdmctl",
		Short:         "pdmctl - operate the document vault",
		Long:          "Allocate codes, create documents and drive them through WIP, REL, IN_REV and OBS.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "catalog database (overrides PDM_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.ArchiveRoot, "archive", "", "archive root (overrides PDM_ARCHIVE_ROOT)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", "", "user id recorded in the activity log")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print JSON instead of tables")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(newSeqCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))
	cmd.AddCommand(newDocCommand(opts))
	cmd.AddCommand(newWorkflowCommand(opts))
	cmd.AddCommand(newLockCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newActivityCommand(opts))
	cmd.AddCommand(newMachineCommand(opts))
	cmd.AddCommand(newGroupCommand(opts))

	return cmd
}

// env is one opened workspace plus the session of this invocation.
type env struct {
	*app.App
	identity session.Identity
	out      *printer
}

// withApp opens the workspace, runs fn and closes the session and the
// catalog afterwards.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if o.DBPath != "" {
		cfg.DB.Path = o.DBPath
	}
	if o.ArchiveRoot != "" {
		cfg.Archive.Root = o.ArchiveRoot
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if o.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logging.ParseLevel(cfg.Log.Level)}))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	id := a.Sessions.Start(ctx, o.User)
	defer a.Sessions.Close(context.Background(), id)

	return fn(ctx, &env{App: a, identity: id, out: newPrinter(cmd.OutOrStdout(), o.JSON)})
}
