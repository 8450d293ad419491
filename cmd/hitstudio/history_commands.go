package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hitstudio/internal/history"
)

const promptColumnWidth = 40

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		statuses   []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			filters := make([]history.Status, 0, len(statuses))
			for _, value := range statuses {
				if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
					filters = append(filters, history.Status(trimmed))
				}
			}
			items, err := store.ListGenerations(cmd.Context(), limit, filters...)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No generations recorded")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.CreatedAt.Local().Format(time.DateTime),
					item.JobID,
					string(item.Status),
					strconv.Itoa(item.Progress) + "%",
					dashIfEmpty(item.TrackID),
					item.Model,
					truncate(item.Prompt, promptColumnWidth),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Submitted", "Job", "Status", "Progress", "Track", "Model", "Prompt"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of generations to list")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only list these statuses (submitted, completed, failed, abandoned)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLeaderboardCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank analysed tracks by their best score",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			entries, err := store.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No analyses recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					strconv.Itoa(entry.Rank),
					entry.TrackID,
					fmt.Sprintf("%.1f", entry.BestScore),
					paintTier(entry.Tier, entry.Tier.Label, colorize),
					strconv.Itoa(entry.Analyses),
					truncate(entry.Prompt, promptColumnWidth),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Track", "Best", "Tier", "Runs", "Prompt"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of tracks to rank")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func truncate(value string, width int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
