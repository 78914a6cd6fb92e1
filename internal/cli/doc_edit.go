package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/document"
)

type tickResult struct {
	Code string `json:"code,omitempty"`
	Tick int64  `json:"tick"`
}

func newDocDescribeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe CODE TEXT",
		Short: "Replace the description of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				tick, err := e.Documents.UpdateDescription(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if done, err := e.out.value(tickResult{Code: args[0], Tick: tick}); done || err != nil {
					return err
				}
				e.out.ok("description of %s updated (tick %d)", args[0], tick)
				return nil
			})
		},
	}
}

func newDocCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout CODE",
		Short: "Mark a WIP or IN_REV document as being edited by you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				doc, _, err := e.Documents.Checkout(ctx, args[0], e.identity.UserID, e.identity.Host)
				if err != nil {
					return err
				}
				e.audit(ctx, activity.ActionCheckout, doc.Code, nil)
				return e.out.checkout(doc)
			})
		},
	}
}

func newDocCheckinCommand(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "checkin CODE",
		Short: "Clear your checkout of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				doc, _, err := e.Documents.Checkin(ctx, args[0], e.identity.UserID, force)
				if err != nil {
					return err
				}
				e.audit(ctx, activity.ActionCheckin, doc.Code, map[string]any{"force": force})
				return e.out.checkout(doc)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "clear a checkout owned by another user")
	return cmd
}

func (p *printer) checkout(doc *document.Document) error {
	if done, err := p.value(doc); done || err != nil {
		return err
	}
	if doc.CheckedOut {
		p.ok("%s checked out by %s@%s", doc.Code, doc.CheckoutUser, doc.CheckoutHost)
	} else {
		p.ok("%s checked in", doc.Code)
	}
	return nil
}

func newDocPropCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prop",
		Short: "Custom document properties",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set CODE NAME VALUE",
		Short: "Set a property value on a document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				tick, err := e.Documents.SetProperty(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				if done, err := e.out.value(tickResult{Code: args[0], Tick: tick}); done || err != nil {
					return err
				}
				e.out.ok("%s: %s = %s", args[0], document.NormalizePropertyName(args[1]), args[2])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a property from every document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				tick, err := e.Documents.DeleteProperty(ctx, args[0])
				if err != nil {
					return err
				}
				if done, err := e.out.value(tickResult{Tick: tick}); done || err != nil {
					return err
				}
				e.out.ok("property %s removed", document.NormalizePropertyName(args[0]))
				return nil
			})
		},
	})
	return cmd
}

// audit records a catalog action for this invocation's session. Failures
// are logged by the activity service and otherwise ignored.
func (e *env) audit(ctx context.Context, action, code string, details map[string]any) {
	_ = e.Activity.Record(ctx, e.identity.Actor(e.Config.Workspace.ID), action, code, activity.StatusOK, "", details)
}
