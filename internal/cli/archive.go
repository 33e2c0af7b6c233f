package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type archiveEntryJSON struct {
	Timestamp string `json:"timestamp"`
	SHA256    string `json:"sha256"`
	LineCount int    `json:"line_count"`
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived snapshots of a source",
}

var archiveListCmd = &cobra.Command{
	Use:   "list <alias>",
	Short: "List archived snapshots for a source, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias := args[0]
		if !manager.Exists(alias) {
			return handleError(ErrSourceNotFound, alias, fmt.Errorf("source %q not found", alias))
		}
		names, err := manager.ArchiveEntries(alias)
		if err != nil {
			return handleError(ErrStorageError, alias, err)
		}

		entries := make([]archiveEntryJSON, 0, len(names))
		for _, ts := range names {
			meta, err := manager.ReadArchive(alias, ts)
			if err != nil {
				return handleError(ErrStorageError, alias, err)
			}
			entries = append(entries, archiveEntryJSON{Timestamp: ts, SHA256: meta.SHA256, LineCount: meta.LineCount})
		}

		if isJSONOutput() {
			outputSuccess(entries, &Meta{Count: len(entries)})
			return nil
		}
		if len(entries) == 0 {
			printlnOrJSON(fmt.Sprintf("%s has no archived snapshots", alias))
			return nil
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, row{e.Timestamp, fmt.Sprintf("%d lines", e.LineCount), e.SHA256[:12]})
		}
		printOrJSON("%s", renderTable(row{"TIMESTAMP", "SIZE", "SHA256"}, rows))
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	rootCmd.AddCommand(archiveCmd)
}
