package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all known jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			views, err := client.List(cmd.Context())
			if errors.Is(err, errDaemonDown) {
				views, err = ctx.localList(cmd.Context())
			}
			if err != nil {
				return err
			}
			sort.Slice(views, func(i, j int) bool {
				return views[i].CreatedAt > views[j].CreatedAt
			})

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(views)
			}

			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				label := view.DisplayTitle
				if label == "" {
					label = view.SourceRef
				}
				rows = append(rows, []string{
					view.ID,
					label,
					view.Status,
					formatProgress(view.Progress),
					view.ResultFileName,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status", "Progress", "Result"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit jobs as JSON")
	return cmd
}
