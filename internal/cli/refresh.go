package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blz-dev/blz/internal/lifecycle"
)

type refreshResultJSON struct {
	Alias     string `json:"alias"`
	Changed   bool   `json:"changed"`
	LineCount int    `json:"line_count"`
	Error     string `json:"error,omitempty"`
}

var refreshAll bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [alias]",
	Short: "Re-fetch one source, or every source with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshAll {
			summaries, err := controller.RefreshAll(cmd.Context())
			if err != nil {
				return handleError(ErrStorageError, "", err)
			}
			return reportRefreshAll(summaries)
		}
		if len(args) != 1 {
			return fmtUsage("refresh requires an alias, or --all")
		}
		return reportRefresh(controller.Refresh(cmd.Context(), args[0]))
	},
}

func reportRefresh(res lifecycle.RefreshSummary) error {
	if res.Err != nil {
		logger.Warn("refresh failed", "alias", res.Alias, "error", res.Err)
		return handleError(errorCode(res.Err), res.Alias, res.Err)
	}
	logger.Info("refresh", "alias", res.Alias, "changed", res.Changed)
	if isJSONOutput() {
		outputSuccess(refreshResultJSON{Alias: res.Alias, Changed: res.Changed, LineCount: res.LineCount}, &Meta{Count: 1})
		return nil
	}
	status := "unchanged"
	if res.Changed {
		status = "updated"
	}
	printlnOrJSON(fmt.Sprintf("%s: %s (%d lines)", res.Alias, status, res.LineCount))
	return nil
}

func reportRefreshAll(summaries []lifecycle.RefreshSummary) error {
	results := make([]refreshResultJSON, 0, len(summaries))
	var warnings []Warning
	for _, s := range summaries {
		r := refreshResultJSON{Alias: s.Alias, Changed: s.Changed, LineCount: s.LineCount}
		if s.Err != nil {
			r.Error = s.Err.Error()
			warnings = append(warnings, Warning{Alias: s.Alias, Kind: WarnSourceError, Message: s.Err.Error()})
		}
		results = append(results, r)
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(results, warnings, &Meta{Count: len(results)})
		return nil
	}
	for _, r := range results {
		if r.Error != "" {
			printlnOrJSON(fmt.Sprintf("%s: failed: %s", r.Alias, r.Error))
			continue
		}
		status := "unchanged"
		if r.Changed {
			status = "updated"
		}
		printlnOrJSON(fmt.Sprintf("%s: %s (%d lines)", r.Alias, status, r.LineCount))
	}
	return nil
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "refresh every known source")
	rootCmd.AddCommand(refreshCmd)
}
