package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type sourceSummaryJSON struct {
	Alias            string `json:"alias"`
	OriginURL        string `json:"origin_url"`
	LineCount        int    `json:"line_count"`
	FetchedAt        string `json:"fetched_at"`
	SchemaGeneration int    `json:"schema_generation"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		aliases, err := manager.ListAliases()
		if err != nil {
			return handleError(ErrStorageError, "", err)
		}

		summaries := make([]sourceSummaryJSON, 0, len(aliases))
		for _, alias := range aliases {
			meta, err := manager.ReadMetadata(alias)
			if err != nil {
				return handleError(ErrStorageError, alias, err)
			}
			summaries = append(summaries, sourceSummaryJSON{
				Alias:            alias,
				OriginURL:        meta.OriginURL,
				LineCount:        meta.LineCount,
				FetchedAt:        meta.FetchedAt.Format(time.RFC3339),
				SchemaGeneration: meta.SchemaGeneration,
			})
		}

		if isJSONOutput() {
			outputSuccess(summaries, &Meta{Count: len(summaries)})
			return nil
		}
		if len(summaries) == 0 {
			printlnOrJSON("no sources")
			return nil
		}
		rows := make([]row, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, row{s.Alias, fmt.Sprintf("%d lines", s.LineCount), s.OriginURL})
		}
		printOrJSON("%s", renderTable(row{"ALIAS", "SIZE", "ORIGIN"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
