package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/lock"
)

func newLockCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Document locks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List live document locks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				locks, err := e.Locks.ListActive(ctx)
				if err != nil {
					return err
				}
				if locks == nil {
					locks = []lock.Lock{}
				}
				if done, err := e.out.value(locks); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(locks))
				for _, l := range locks {
					rows = append(rows, []string{
						l.Code,
						l.Holder.UserID + "@" + l.Holder.Host,
						l.Holder.SessionID,
						l.Holder.ExpiresAt.Local().Format("15:04:05"),
					})
				}
				return e.out.table([]string{"CODE", "HOLDER", "SESSION", "EXPIRES"}, rows)
			})
		},
	})

	var sessionID string
	releaseAll := &cobra.Command{
		Use:   "release-all",
		Short: "Release every lock held by a session, e.g. after a client crashed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				n, err := e.Locks.ReleaseAll(ctx, sessionID)
				if err != nil {
					return err
				}
				if done, err := e.out.value(map[string]int{"released": n}); done || err != nil {
					return err
				}
				e.out.ok("released %d lock(s) of %s", n, sessionID)
				return nil
			})
		},
	}
	releaseAll.Flags().StringVar(&sessionID, "session", "", "session id of the holder")
	_ = releaseAll.MarkFlagRequired("session")
	cmd.AddCommand(releaseAll)

	return cmd
}
