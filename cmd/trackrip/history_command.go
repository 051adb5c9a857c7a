package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trackrip/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent job submissions and outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ledger, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				finished := ""
				if entry.FinishedAt != nil {
					finished = entry.FinishedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					entry.JobID,
					entry.SourceRef,
					entry.Status,
					entry.SubmittedAt.Local().Format(time.RFC3339),
					finished,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Source", "Status", "Submitted", "Finished"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show")
	return cmd
}
