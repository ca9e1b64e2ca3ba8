package journal

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Print 以人类可读的形式打印报告
func Print(w io.Writer, id string, r *Report) error {
	short := id
	if len(short) > 12 {
		short = short[:12]
	}
	fmt.Fprintf(w, "Run:       %s\n", short)
	fmt.Fprintf(w, "Base:      %s\n", r.BaseDir)
	fmt.Fprintf(w, "Mode:      %s\n", r.Mode)
	fmt.Fprintf(w, "Started:   %s\n", time.Unix(r.StartedAt, 0).Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:  %ds\n", r.Finished-r.StartedAt)
	if r.Aborted {
		fmt.Fprintf(w, "Aborted:   yes\n")
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}
	fmt.Fprintln(w)

	if len(r.Packages) == 0 {
		fmt.Fprintln(w, "nothing changed")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "PACKAGE\tSTATUS\tRESULT\tVERSION\tDIGEST\n")
	for _, p := range r.Packages {
		result := "ok"
		if !p.Passed {
			result = "failed:" + string(p.Stage)
		}
		version := p.OldVersion
		if p.NewVersion != "" && p.NewVersion != p.OldVersion {
			version = p.OldVersion + " -> " + p.NewVersion
		}
		digest := p.Digest.String()
		if len(digest) > 8 {
			digest = digest[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Path, p.Status, result, version, digest)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range r.Failed() {
		fmt.Fprintf(w, "\n%s: %s\n", p.Path, p.Error)
	}
	fmt.Fprintf(w, "\ncommitted %d of %d changed package(s)\n", len(r.Committed), len(r.Packages))
	return nil
}
