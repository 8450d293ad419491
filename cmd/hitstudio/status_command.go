package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hitstudio/internal/generation"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the backend status of a generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.session(cmd)
			if err != nil {
				return err
			}
			status, err := sess.Generation().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			kind := statusInfo
			message := fmt.Sprintf("%s, %d%%", status.State, status.Progress)
			switch status.State {
			case generation.StateSucceeded:
				kind = statusOK
				message = "track " + status.TrackID
			case generation.StateFailed:
				kind = statusError
				message = status.ErrorMessage
			}
			fmt.Fprintln(out, renderStatusLine("Job "+status.JobID, kind, message, colorize))
			if status.Message != "" && status.State != generation.StateSucceeded {
				fmt.Fprintf(out, "%s%s\n", statusIndent, status.Message)
			}
			if status.AudioURL != "" {
				fmt.Fprintf(out, "%sAudio: %s\n", statusIndent, status.AudioURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
