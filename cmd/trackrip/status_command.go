package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trackrip/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.Describe(cmd.Context(), args[0])
			if errors.Is(err, errDaemonDown) {
				view, err = ctx.localDescribe(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(view)
			}

			printJobDetail(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the job as JSON")
	return cmd
}

func printJobDetail(cmd *cobra.Command, view api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", view.ID)
	fmt.Fprintf(out, "Source:    %s\n", view.SourceRef)
	fmt.Fprintf(out, "Status:    %s\n", view.Status)
	fmt.Fprintf(out, "Progress:  %s\n", formatProgress(view.Progress))
	if view.DisplayTitle != "" {
		fmt.Fprintf(out, "Title:     %s\n", view.DisplayTitle)
	}
	if view.DisplayArtist != "" {
		fmt.Fprintf(out, "Artist:    %s\n", view.DisplayArtist)
	}
	if view.ResultFileName != "" {
		fmt.Fprintf(out, "Result:    %s\n", view.ResultFileName)
	}
	if view.ErrorDetail != "" {
		fmt.Fprintf(out, "Error:     %s\n", view.ErrorDetail)
	}
	if view.CreatedAt != "" {
		fmt.Fprintf(out, "Created:   %s\n", view.CreatedAt)
	}
	if view.CompletedAt != "" {
		fmt.Fprintf(out, "Completed: %s\n", view.CompletedAt)
	}
}
