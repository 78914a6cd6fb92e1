package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/migrate"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move files from older archive layouts into the current one",
		Long:  "Plans the moves and prints a report. Nothing changes on disk or in the catalog without --apply.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				rep, err := e.Migrator.Run(ctx, apply)
				if err != nil {
					return err
				}
				status := activity.StatusOK
				if !rep.OK {
					status = activity.StatusFail
				}
				_ = e.Activity.Record(ctx, e.identity.Actor(e.Config.Workspace.ID), activity.ActionMigration, "", status,
					"archive layout migration", map[string]any{"apply": apply, "moves_done": rep.MovesDone})

				done, err := e.out.value(rep)
				if err != nil {
					return err
				}
				if !done {
					if err := migrate.Render(e.out.w, rep); err != nil {
						return err
					}
				}
				if !rep.OK {
					return fmt.Errorf("migration finished with %d error(s)", len(rep.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "perform the moves and update the catalog")
	return cmd
}
