package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"hitstudio/internal/analysis"
	"hitstudio/internal/generation"
	"hitstudio/internal/services"
	"hitstudio/internal/tracker"
)

type generateResult struct {
	Generation tracker.Snapshot `json:"generation"`
	Analysis   *analysis.Report `json:"analysis,omitempty"`
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		duration    int
		model       string
		temperature float64
		noWait      bool
		analyze     bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "generate PROMPT...",
		Short: "Generate a track from a text prompt and follow it to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			req := generation.Request{
				Prompt:      strings.Join(args, " "),
				Duration:    duration,
				Model:       model,
				Temperature: temperature,
			}
			snap, err := sess.Submit(runCtx, req)
			if err != nil {
				if errors.Is(err, services.ErrBackendRejection) {
					return fmt.Errorf("generation rejected: %s", snap.LastError)
				}
				return err
			}

			if noWait {
				if jsonOutput {
					return writeJSON(cmd, generateResult{Generation: snap})
				}
				fmt.Fprintln(out, renderOutcome(snap, colorize))
				fmt.Fprintf(out, "Check progress with: hitstudio status %s\n", snap.JobID)
				return nil
			}

			stopProgress := func() {}
			if !jsonOutput {
				stopProgress = printProgress(out, sess.Tracker())
			}
			final, err := sess.Follow(runCtx)
			stopProgress()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Stopped following job %s; it keeps running on the backend\n", final.JobID)
				}
				return err
			}

			result := generateResult{Generation: final}
			if final.State == tracker.StateCompleted && (analyze || ctx.configValue().Generation.AutoAnalyze) {
				report, ok := sess.Meter().Report()
				if !ok || report.TrackID != final.TrackID {
					report, err = sess.Analyze(runCtx, final.TrackID)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: analysis failed: %v\n", err)
					}
				}
				if err == nil {
					result.Analysis = &report
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, renderOutcome(final, colorize))
				if result.Analysis != nil {
					fmt.Fprintln(out)
					renderReport(out, *result.Analysis, colorize)
				}
			}
			if final.State == tracker.StateFailed {
				return fmt.Errorf("generation failed: %s", final.LastError)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "Track length in seconds ("+joinInts(generation.Durations())+")")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id ("+strings.Join(generation.SupportedModels(), ", ")+")")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "Sampling temperature between 0.5 and 1.5")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Submit and return without following the job")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Analyze the finished track")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// printProgress prints a line whenever the displayed progress of the tracked
// job changes. The returned function stops printing and waits for the last
// line to be written.
func printProgress(out io.Writer, t *tracker.Tracker) func() {
	updates, cancel := t.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := -1
		for update := range updates {
			if update.State != tracker.StateTracking || update.Progress == last {
				continue
			}
			last = update.Progress
			fmt.Fprintln(out, renderProgress(update))
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
