package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/machine"
)

func newMachineCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Machine segments (MMM)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add MMM [NAME]",
		Short: "Register a machine",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				m, err := e.Machines.AddMachine(ctx, args[0], argOr(args, 1))
				if err != nil {
					return err
				}
				if done, err := e.out.value(m); done || err != nil {
					return err
				}
				e.out.ok("machine %s added", m.MMM)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				machines, err := e.Machines.ListMachines(ctx)
				if err != nil {
					return err
				}
				if machines == nil {
					machines = []machine.Machine{}
				}
				if done, err := e.out.value(machines); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(machines))
				for _, m := range machines {
					rows = append(rows, []string{m.MMM, m.Name})
				}
				return e.out.table([]string{"MMM", "NAME"}, rows)
			})
		},
	})
	return cmd
}

func newGroupCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group segments (GGGG) within a machine",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add MMM GGGG [NAME]",
		Short: "Register a group under a machine",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				g, err := e.Machines.AddGroup(ctx, args[0], args[1], argOr(args, 2))
				if err != nil {
					return err
				}
				if done, err := e.out.value(g); done || err != nil {
					return err
				}
				e.out.ok("group %s_%s added", g.MMM, g.GGGG)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list MMM",
		Short: "List the groups of a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				groups, err := e.Machines.ListGroups(ctx, args[0])
				if err != nil {
					return err
				}
				if groups == nil {
					groups = []machine.Group{}
				}
				if done, err := e.out.value(groups); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, []string{g.MMM, g.GGGG, g.Name})
				}
				return e.out.table([]string{"MMM", "GGGG", "NAME"}, rows)
			})
		},
	})
	return cmd
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
