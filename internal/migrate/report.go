package migrate

import (
	"fmt"
	"io"
)

// Render writes a plain-text summary of rep.
func Render(w io.Writer, rep *Report) error {
	mode := "dry run"
	if rep.Applied {
		mode = "apply"
	}
	status := "ok"
	if !rep.OK {
		status = "errors"
	}

	lines := []string{
		fmt.Sprintf("archive layout migration (%s): %s", mode, status),
		fmt.Sprintf("root:           %s", rep.ArchiveRoot),
		fmt.Sprintf("docs scanned:   %d", rep.DocsScanned),
		fmt.Sprintf("docs to update: %d", rep.DocsToUpdate),
		fmt.Sprintf("docs updated:   %d", rep.DocsUpdated),
		fmt.Sprintf("moves planned:  %d", rep.MovesPlanned),
		fmt.Sprintf("moves done:     %d", rep.MovesDone),
		fmt.Sprintf("moves missing:  %d", rep.MovesMissing),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	sections := []struct {
		title string
		items []string
	}{
		{"conflicts", rep.Conflicts},
		{"errors", rep.Errors},
		{"sample moves", rep.Samples},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s (%d):\n", s.title, len(s.items)); err != nil {
			return err
		}
		for _, item := range s.items {
			if _, err := fmt.Fprintf(w, "  %s\n", item); err != nil {
				return err
			}
		}
	}
	return nil
}
