package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tilesweep/internal/cost"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/sweep"
)

// formatPlan writes a dry-run description of a sweep to w.
func formatPlan(out io.Writer, p *sweep.Plan, est cost.SweepEstimate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Sweep ID:\t%s\n", p.SweepID)
	_, _ = fmt.Fprintf(w, "Tiles:\t%d\n", len(p.Tiles))
	_, _ = fmt.Fprintf(w, "Zoom:\t%d\n", p.Zoom)
	_, _ = fmt.Fprintf(w, "Classifier:\t%s\n", p.Spec.Classifier)
	_, _ = fmt.Fprintf(w, "Output:\t%s\n", p.OutputDir)
	_, _ = fmt.Fprintf(w, "Tokens per tile:\t%d in / %d out\n", est.InputTokensPerTile, est.OutputTokensPerTile)
	if est.KnownModel {
		_, _ = fmt.Fprintf(w, "Est. max cost:\t$%.2f\n", est.CostUSD)
	} else {
		_, _ = fmt.Fprintf(w, "Est. max cost:\tunknown (no rate for %s)\n", est.Model)
	}
	_ = w.Flush()
}

// formatSummary writes the end-of-run summary to w.
func formatSummary(out io.Writer, s *sweep.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Sweep ID:\t%s\n", s.SweepID)
	_, _ = fmt.Fprintf(w, "Run ID:\t%s\n", s.RunID)
	_, _ = fmt.Fprintf(w, "Progress:\t%d/%d (started at %d)\n", s.LastProcessedIndex, s.TotalTiles, s.StartIndex)
	_, _ = fmt.Fprintf(w, "Evaluated:\t%d\n", s.Evaluated)
	_, _ = fmt.Fprintf(w, "  With imagery:\t%d\n", s.WithImagery)
	_, _ = fmt.Fprintf(w, "  No imagery:\t%d\n", s.NoImagery)
	_, _ = fmt.Fprintf(w, "  Positive:\t%d\n", s.Positive)
	_, _ = fmt.Fprintf(w, "Saved:\t%d\n", s.Saved)
	_, _ = fmt.Fprintf(w, "Already saved:\t%d\n", s.AlreadySaved)
	_, _ = fmt.Fprintf(w, "Skipped (resumed):\t%d\n", s.Resumed)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed())
	if s.Failed() > 0 {
		_, _ = fmt.Fprintf(w, "  Fetch:\t%d\n", s.FetchFailed)
		_, _ = fmt.Fprintf(w, "  Classify:\t%d\n", s.ClassifyFailed)
		_, _ = fmt.Fprintf(w, "  Persist:\t%d\n", s.PersistFailed)
	}
	if s.PendingFailures > 0 {
		_, _ = fmt.Fprintf(w, "Pending failures:\t%d (rerun with --retry-failed)\n", s.PendingFailures)
	}
	_, _ = fmt.Fprintf(w, "Cost:\t$%.4f\n", s.CostUSD)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", s.Duration.Round(time.Millisecond))
	switch {
	case s.Halted:
		_, _ = fmt.Fprintln(w, "Status:\thalted (classifier unavailable)")
	case s.Canceled:
		_, _ = fmt.Fprintln(w, "Status:\tinterrupted")
	case s.LastProcessedIndex >= s.TotalTiles:
		_, _ = fmt.Fprintln(w, "Status:\tcomplete")
	default:
		_, _ = fmt.Fprintln(w, "Status:\tincomplete")
	}
	_, _ = fmt.Fprintf(w, "Output:\t%s\n", s.OutputDir)
	_ = w.Flush()
}

// formatRecordList writes a tabular list of progress records to w.
func formatRecordList(out io.Writer, recs []progress.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SWEEP_ID\tPROGRESS\tFAILURES\tSTATUS\tCLASSIFIER\tUPDATED")
	_, _ = fmt.Fprintln(w, "--------\t--------\t--------\t------\t----------\t-------")

	for _, r := range recs {
		status := "in progress"
		if r.Complete() {
			status = "complete"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d/%d\t%d\t%s\t%s\t%s\n",
			r.SweepID,
			r.LastProcessedIndex,
			r.TotalTiles,
			len(r.Failures),
			status,
			r.Spec.Classifier,
			r.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// encode writes v as indented JSON or YAML.
func encode(out io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}
