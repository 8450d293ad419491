package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hitstudio/internal/analysis"
	"hitstudio/internal/history"
)

type analyzeResult struct {
	Report  analysis.Report         `json:"report"`
	Origin  *history.Generation     `json:"origin,omitempty"`
	History []analysis.HistoryEntry `json:"history,omitempty"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		showHistory bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze TRACK_ID",
		Short: "Score a track's hit potential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			report, err := sess.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := analyzeResult{Report: report}
			if store := sess.Store(); store != nil {
				origin, err := store.FindByTrack(cmd.Context(), report.TrackID)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: history lookup failed: %v\n", err)
				}
				result.Origin = origin
			}
			if showHistory {
				result.History, err = sess.Analysis().History(cmd.Context(), report.TrackID)
				if err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			renderReport(out, report, colorize)
			if result.Origin != nil {
				renderOrigin(out, result.Origin)
			}
			if len(result.History) > 0 {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Previous analyses", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := make([][]string, 0, len(result.History))
				for _, entry := range result.History {
					rows = append(rows, []string{entry.CreatedAt, fmt.Sprintf("%.1f", entry.OverallScore), entry.ID})
				}
				fmt.Fprintln(out, renderTable([]string{"When", "Score", "ID"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHistory, "history", false, "Also list the backend's earlier analyses of the track")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// renderOrigin shows the locally recorded submission that produced a track.
func renderOrigin(w io.Writer, gen *history.Generation) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Prompt:", gen.Prompt)
	fmt.Fprintf(w, "%s%-*s %s, %ds, temperature %.2f\n", statusIndent, statusLabelWidth, "Settings:", gen.Model, gen.Duration, gen.Temperature)
	fmt.Fprintf(w, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Job:", gen.JobID)
}
