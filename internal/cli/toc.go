package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	tocLevel string
	tocAll   bool
)

type tocEntryJSON struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	LineStart int    `json:"line_start"`
}

type tocResponseJSON struct {
	Alias   string         `json:"alias"`
	Entries []tocEntryJSON `json:"entries"`
}

var tocCmd = &cobra.Command{
	Use:   "toc [alias]...",
	Short: "Show the heading table of contents for one or more sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevelFlag(tocLevel)
		if err != nil {
			return handleError(ErrInvalidInput, "", err)
		}

		aliases := args
		if tocAll || len(aliases) == 0 {
			aliases, err = manager.ListAliases()
			if err != nil {
				return handleError(ErrStorageError, "", err)
			}
		}

		var responses []tocResponseJSON
		var warnings []Warning
		for _, alias := range aliases {
			outline, err := manager.ReadOutline(alias)
			if err != nil {
				warnings = append(warnings, Warning{Alias: alias, Kind: WarnSourceError, Message: err.Error()})
				continue
			}
			entries := make([]tocEntryJSON, 0, len(outline.TOC))
			for _, e := range outline.TOC {
				if !level.Allows(e.Level) {
					continue
				}
				entries = append(entries, tocEntryJSON{Level: e.Level, Title: e.Title, LineStart: e.LineStart})
			}
			responses = append(responses, tocResponseJSON{Alias: alias, Entries: entries})
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(responses, warnings, &Meta{Count: len(responses)})
			return nil
		}

		for _, r := range responses {
			printlnOrJSON(accentStyle.Render(r.Alias))
			for _, e := range r.Entries {
				printlnOrJSON(fmt.Sprintf("%s%s  (line %d)", indentFor(e.Level), e.Title, e.LineStart))
			}
		}
		for _, w := range warnings {
			printlnOrJSON(fmt.Sprintf("warning: %s: %s", w.Alias, w.Message))
		}
		return nil
	},
}

func indentFor(level int) string {
	if level <= 1 {
		return ""
	}
	return strings.Repeat("  ", level-1)
}

func init() {
	tocCmd.Flags().StringVar(&tocLevel, "level", "", `heading-level filter: "1,3", "1-3", "<=2"`)
	tocCmd.Flags().BoolVar(&tocAll, "all", false, "show every known source (default when no alias is given)")
	rootCmd.AddCommand(tocCmd)
}
