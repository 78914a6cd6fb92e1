package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

type scopeFlags struct {
	docType string
	mmm     string
	gggg    string
	vvv     string
}

func (f *scopeFlags) bind(cmd *cobra.Command, defaultType document.DocType, withVariant bool) {
	cmd.Flags().StringVarP(&f.docType, "type", "t", string(defaultType), "document type (PART, ASSY, MACHINE, GROUP)")
	cmd.Flags().StringVar(&f.mmm, "mmm", "", "machine segment")
	cmd.Flags().StringVar(&f.gggg, "gggg", "", "group segment")
	if withVariant {
		cmd.Flags().StringVar(&f.vvv, "vvv", "", "variant segment")
	}
	_ = cmd.MarkFlagRequired("mmm")
}

type allocation struct {
	Number int    `json:"number"`
	Code   string `json:"code"`
}

func newSeqCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seq",
		Short: "Part and assembly sequence counters",
	}
	cmd.AddCommand(newSeqAllocCommand(opts, "next", "Allocate the next sequence number", false))
	cmd.AddCommand(newSeqAllocCommand(opts, "peek", "Show the next sequence number without allocating it", true))
	return cmd
}

func newSeqAllocCommand(opts *RootOptions, use, short string, peek bool) *cobra.Command {
	var f scopeFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docType, err := document.ParseDocType(f.docType)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				next := e.Counters.AllocateSequence
				if peek {
					next = e.Counters.PeekSequence
				}
				n, err := next(ctx, f.mmm, f.gggg, f.vvv, docType)
				if err != nil {
					return err
				}
				return e.out.allocation(docType, f, n)
			})
		},
	}
	f.bind(cmd, document.DocTypePart, true)
	return cmd
}

func newVersionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Machine and group version counters",
	}
	var f scopeFlags
	next := &cobra.Command{
		Use:   "next",
		Short: "Allocate the next machine or group version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docType, err := document.ParseDocType(f.docType)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, e *env) error {
				n, err := e.Counters.AllocateVersion(ctx, f.mmm, f.gggg, docType)
				if err != nil {
					return err
				}
				return e.out.allocation(docType, f, n)
			})
		},
	}
	f.bind(next, document.DocTypeMachine, false)
	cmd.AddCommand(next)
	return cmd
}

func (p *printer) allocation(docType document.DocType, f scopeFlags, n int) error {
	m, _ := document.NormalizeMMM(f.mmm)
	g, _ := document.NormalizeGGGG(f.gggg)
	v, _ := document.NormalizeVVV(f.vvv)
	a := allocation{Number: n, Code: document.BuildCode(docType, m, g, v, n)}
	if done, err := p.value(a); done || err != nil {
		return err
	}
	p.field("number", strconv.Itoa(a.Number))
	p.field("code", a.Code)
	return nil
}
