package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trackrip/internal/history"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize job outcomes",
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

			stats, err := ledger.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Total", strconv.FormatInt(stats.Total, 10)},
				{"Completed", strconv.FormatInt(stats.Completed, 10)},
				{"Failed", strconv.FormatInt(stats.Failed, 10)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Outcome", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
