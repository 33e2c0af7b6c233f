package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blz-dev/blz/internal/store"
)

type addResultJSON struct {
	Alias        string `json:"alias"`
	LineCount    int    `json:"line_count"`
	HeadingCount int    `json:"heading_count"`
	Bytes        int    `json:"bytes"`
}

var addCmd = &cobra.Command{
	Use:   "add <alias> <url> | add <url>",
	Short: "Fetch a documentation bundle and add it as a new source",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var alias, url string
		if len(args) == 2 {
			alias, url = args[0], args[1]
		} else {
			url = args[0]
			alias = store.SuggestAlias(url)
		}
		if err := store.ValidateAlias(alias); err != nil {
			return handleError(ErrInvalidAlias, alias, err)
		}
		if manager.Exists(alias) {
			return handleError(ErrSourceExists, alias, fmt.Errorf("source %q already exists", alias))
		}

		logger.Info("add", "alias", alias, "url", url)
		summary, err := controller.Add(cmd.Context(), alias, url)
		if err != nil {
			logger.Warn("add failed", "alias", alias, "error", err)
			return handleError(errorCode(err), alias, err)
		}

		if isJSONOutput() {
			outputSuccess(addResultJSON{
				Alias:        summary.Alias,
				LineCount:    summary.LineCount,
				HeadingCount: summary.HeadingCount,
				Bytes:        summary.Bytes,
			}, &Meta{Count: 1})
			return nil
		}

		printlnOrJSON(fmt.Sprintf("added %s: %d lines, %d headings, %d bytes",
			summary.Alias, summary.LineCount, summary.HeadingCount, summary.Bytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
