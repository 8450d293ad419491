package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"hitstudio/internal/analysis"
	"hitstudio/internal/score"
	"hitstudio/internal/services"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the generation models the backend offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			models, err := sess.Generation().Models(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, models)
			}
			rows := make([][]string, 0, len(models))
			for _, model := range models {
				rows = append(rows, []string{model.ID, model.Name, model.Speed, strconv.Itoa(model.MaxDuration) + "s", model.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Speed", "Max", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTiersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tiers",
		Short:       "Show the score tiers used to grade tracks",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, 5)
			for _, tier := range score.Ranges() {
				rows = append(rows, []string{
					paintTier(tier, tier.Label, colorize),
					fmt.Sprintf("%d-%d", tier.Min, tier.Max),
					string(tier.Color),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Tier", "Score", "Color"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func newBenchmarksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "benchmarks",
		Short: "Show the backend's score ranges and category weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			benchmarks, err := sess.Analysis().Benchmarks(cmd.Context())
			if err != nil {
				if !errors.Is(err, services.ErrTransport) {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: backend unreachable, showing local defaults: %v\n", err)
				benchmarks = analysis.LocalBenchmarks()
			}
			if jsonOutput {
				return writeJSON(cmd, benchmarks)
			}

			out := cmd.OutOrStdout()
			keys := make([]string, 0, len(benchmarks.CategoryWeights))
			for key := range benchmarks.CategoryWeights {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, []string{score.CategoryLabel(key), fmt.Sprintf("%.0f%%", benchmarks.CategoryWeights[key])})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Weight"}, rows, []columnAlignment{alignLeft, alignRight}))
			if benchmarks.Description != "" {
				fmt.Fprintln(out, benchmarks.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
