package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/workflow"
)

type transitionFunc func(*workflow.Service, context.Context, workflow.Request) (workflow.Outcome, error)

func newWorkflowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wf",
		Short: "Lifecycle transitions",
	}
	transitions := []struct {
		use, short string
		fn         transitionFunc
	}{
		{"release", "WIP -> REL: move files to rel and write-protect them", (*workflow.Service).ReleaseWIP},
		{"revise", "REL -> IN_REV: copy released files to inrev", (*workflow.Service).CreateInRev},
		{"approve", "IN_REV -> REL: archive to rev, promote inrev, revision+1", (*workflow.Service).ApproveInRev},
		{"cancel", "IN_REV -> REL: drop the in-revision copies", (*workflow.Service).CancelInRev},
		{"obsolete", "Mark a document OBS", (*workflow.Service).SetObsolete},
		{"restore", "Return an OBS document to its prior state", (*workflow.Service).RestoreObsolete},
	}
	for _, tr := range transitions {
		cmd.AddCommand(newTransitionCommand(opts, tr.use, tr.short, tr.fn))
	}
	return cmd
}

func newTransitionCommand(opts *RootOptions, use, short string, fn transitionFunc) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   use + " CODE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				out, err := fn(e.Workflow, ctx, workflow.Request{Code: args[0], Note: note, Session: e.identity})
				if err != nil {
					return err
				}
				done, err := e.out.value(out)
				if err != nil {
					return err
				}
				if !out.Result.OK {
					if !done {
						e.out.fail("%s: %s", out.Result.Code, out.Result.Message)
					}
					return fmt.Errorf("%s refused: %s", use, out.Result.Code)
				}
				if done {
					return nil
				}
				e.out.ok("%s", out.Result.Message)
				e.out.field("state", stateLabel(out.Document))
				e.out.field("revision", fmt.Sprintf("%02d", out.Document.Revision))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&note, "message", "m", "", "reason for the transition (required)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
