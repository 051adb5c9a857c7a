package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		title    string
		artist   string
		format   string
		metadata []string
	)

	cmd := &cobra.Command{
		Use:   "submit <source>",
		Short: "Submit a new audio extraction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			view, err := client.Submit(cmd.Context(), submitPayload{
				SourceRef:     args[0],
				TargetFormat:  format,
				DisplayTitle:  title,
				DisplayArtist: artist,
				Metadata:      meta,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Job %s accepted (%s)\n", view.ID, view.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title for the extracted track")
	cmd.Flags().StringVar(&artist, "artist", "", "Display artist for the extracted track")
	cmd.Flags().StringVar(&format, "format", "", "Target audio format (default mp3)")
	cmd.Flags().StringArrayVar(&metadata, "meta", nil, "Additional metadata as key=value (repeatable)")

	return cmd
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		meta[key] = strings.TrimSpace(value)
	}
	return meta, nil
}
