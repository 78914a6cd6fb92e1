package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

func newDocCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Catalog documents",
	}
	cmd.AddCommand(newDocCreateCommand(opts))
	cmd.AddCommand(newDocShowCommand(opts))
	cmd.AddCommand(newDocFindCommand(opts))
	cmd.AddCommand(newDocDescribeCommand(opts))
	cmd.AddCommand(newDocCheckoutCommand(opts))
	cmd.AddCommand(newDocCheckinCommand(opts))
	cmd.AddCommand(newDocPropCommand(opts))
	return cmd
}

func newDocCreateCommand(opts *RootOptions) *cobra.Command {
	var f scopeFlags
	var description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Allocate a code and create a WIP document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				doc, tick, err := e.Documents.Create(ctx, document.CreateRequest{
					DocType:     document.DocType(f.docType),
					MMM:         f.mmm,
					GGGG:        f.gggg,
					VVV:         f.vvv,
					Description: description,
				})
				if err != nil {
					return err
				}
				if done, err := e.out.value(doc); done || err != nil {
					return err
				}
				e.out.ok("created %s (tick %d)", doc.Code, tick)
				if doc.WIPPath != "" {
					e.out.field("model", doc.WIPPath)
				}
				return nil
			})
		},
	}
	f.bind(cmd, document.DocTypePart, true)
	cmd.Flags().StringVarP(&description, "description", "d", "", "document description")
	return cmd
}

type docDetail struct {
	Document   *document.Document   `json:"document"`
	Properties map[string]string    `json:"properties"`
	Notes      []document.StateNote `json:"notes"`
}

func newDocShowCommand(opts *RootOptions) *cobra.Command {
	var notes int
	cmd := &cobra.Command{
		Use:   "show CODE",
		Short: "Show a document with its properties and latest state notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				doc, err := e.Documents.Get(ctx, args[0])
				if err != nil {
					return err
				}
				props, err := e.Documents.Properties(ctx, doc.Code)
				if err != nil {
					return err
				}
				history, err := e.Documents.Notes(ctx, doc.Code, notes)
				if err != nil {
					return err
				}
				if done, err := e.out.value(docDetail{Document: doc, Properties: props, Notes: history}); done || err != nil {
					return err
				}

				e.out.field("code", doc.Code)
				e.out.field("type", doc.DocType)
				e.out.field("state", stateLabel(doc))
				e.out.field("revision", fmt.Sprintf("%02d", doc.Revision))
				e.out.field("description", doc.Description)
				if doc.CheckedOut {
					e.out.field("checked out", doc.CheckoutUser+"@"+doc.CheckoutHost)
				}
				e.out.field("model", doc.ActiveModelPath())
				e.out.field("drawing", doc.ActiveDrawingPath())
				for _, name := range slices.Sorted(maps.Keys(props)) {
					e.out.field(name, props[name])
				}
				if len(history) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(history))
				for _, n := range history {
					rows = append(rows, []string{
						n.CreatedAt.Local().Format("2006-01-02 15:04"),
						string(n.EventType),
						string(n.FromState) + " -> " + string(n.ToState),
						strconv.Itoa(n.RevAfter),
						n.Note,
					})
				}
				fmt.Fprintln(e.out.w)
				return e.out.table([]string{"WHEN", "EVENT", "STATE", "REV", "NOTE"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&notes, "notes", 10, "number of state notes to show")
	return cmd
}

func newDocFindCommand(opts *RootOptions) *cobra.Command {
	var (
		f          scopeFlags
		state      string
		docType    string
		includeObs bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "find [QUERY]",
		Short: "Search documents by code or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := document.SearchFilter{
				MMM:        f.mmm,
				GGGG:       f.gggg,
				VVV:        f.vvv,
				IncludeObs: includeObs,
				Limit:      limit,
			}
			if len(args) == 1 {
				filter.Query = args[0]
			}
			if state != "" {
				st, err := document.ParseState(state)
				if err != nil {
					return err
				}
				filter.State = st
			}
			if docType != "" {
				t, err := document.ParseDocType(docType)
				if err != nil {
					return err
				}
				filter.DocType = t
			}
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				docs, err := e.Documents.Search(ctx, filter)
				if err != nil {
					return err
				}
				if docs == nil {
					docs = []document.Document{}
				}
				if done, err := e.out.value(docs); done || err != nil {
					return err
				}
				rows := make([][]string, 0, len(docs))
				for i := range docs {
					d := &docs[i]
					rows = append(rows, []string{d.Code, string(d.DocType), stateLabel(d), fmt.Sprintf("%02d", d.Revision), d.Description})
				}
				return e.out.table([]string{"CODE", "TYPE", "STATE", "REV", "DESCRIPTION"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&f.mmm, "mmm", "", "machine segment")
	cmd.Flags().StringVar(&f.gggg, "gggg", "", "group segment")
	cmd.Flags().StringVar(&f.vvv, "vvv", "", "variant segment")
	cmd.Flags().StringVar(&state, "state", "", "WIP, REL, IN_REV or OBS")
	cmd.Flags().StringVarP(&docType, "type", "t", "", "document type")
	cmd.Flags().BoolVar(&includeObs, "obs", false, "include obsolete documents")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func stateLabel(d *document.Document) string {
	if d.State == document.StateOBS && d.ObsPrevState != "" {
		return fmt.Sprintf("%s (was %s)", d.State, d.ObsPrevState)
	}
	return string(d.State)
}
