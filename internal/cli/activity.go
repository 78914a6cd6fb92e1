package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/activity"
)

func newActivityCommand(opts *RootOptions) *cobra.Command {
	var filter activity.ListActivityOptions
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				entries, err := e.Activity.GetRecentActivity(ctx, filter)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []activity.ActivityEntry{}
				}
				if done, err := e.out.value(entries); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, a := range entries {
					rows = append(rows, []string{
						a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						a.UserID,
						a.Action,
						a.Code,
						string(a.Status),
						a.Message,
					})
				}
				return e.out.table([]string{"WHEN", "USER", "ACTION", "CODE", "STATUS", "MESSAGE"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Code, "code", "", "only this document")
	cmd.Flags().StringVar(&filter.Action, "action", "", "only this action, e.g. WF_RELEASE")
	cmd.Flags().StringVar(&filter.SessionID, "session", "", "only this session")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum rows")
	return cmd
}
