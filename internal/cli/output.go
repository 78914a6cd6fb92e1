package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// printer writes command results either as JSON or as tables and
// status lines.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON}
}

// value prints v as indented JSON. It returns false in table mode so the
// caller renders its own view.
func (p *printer) value(v any) (bool, error) {
	if !p.json {
		return false, nil
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

// table renders rows under header.
func (p *printer) table(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, out)
	return err
}

func (p *printer) ok(format string, args ...any) {
	fmt.Fprintln(p.w, color.GreenString("✔ ")+fmt.Sprintf(format, args...))
}

func (p *printer) fail(format string, args ...any) {
	fmt.Fprintln(p.w, color.RedString("✘ ")+fmt.Sprintf(format, args...))
}

func (p *printer) field(name string, value any) {
	fmt.Fprintf(p.w, "%s %v\n", color.New(color.Faint).Sprintf("%-14s", name+":"), value)
}
