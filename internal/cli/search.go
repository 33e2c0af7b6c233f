package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blz-dev/blz/internal/search"
)

var (
	searchLevel        string
	searchHeadingsOnly bool
	searchLimit        int
	searchOffset       int
	searchAll          bool
	searchAliases      []string
	searchSnippetChars int
)

type searchResultJSON struct {
	Alias       string   `json:"alias"`
	Lines       string   `json:"lines"`
	Score       float64  `json:"score"`
	HeadingPath []string `json:"heading_path"`
	Level       int      `json:"level"`
	Snippet     string   `json:"snippet"`
}

type searchWarningJSON struct {
	Alias string `json:"alias"`
	Kind  string `json:"kind"`
	Msg   string `json:"msg"`
}

type searchResponseJSON struct {
	Query    string              `json:"query"`
	Total    int                 `json:"total"`
	TookMs   int64               `json:"took_ms"`
	Warnings []searchWarningJSON `json:"warnings,omitempty"`
	Results  []searchResultJSON  `json:"results"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed sources for a keyword query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryText := strings.Join(args, " ")

		level, err := parseLevelFlag(searchLevel)
		if err != nil {
			return handleError(ErrInvalidInput, "", err)
		}

		aliases := searchAliases
		if len(aliases) == 0 {
			aliases, err = manager.ListAliases()
			if err != nil {
				return handleError(ErrStorageError, "", err)
			}
		}

		sources := make([]search.Source, 0, len(aliases))
		var openWarnings []search.SourceWarning
		for _, alias := range aliases {
			shard, err := shards.Get(alias)
			if err != nil {
				// A single source failing to open (degraded index, missing
				// shard) is a per-result warning, not a request failure,
				// as long as at least one other source succeeds.
				openWarnings = append(openWarnings, search.SourceWarning{Alias: alias, Err: err})
				continue
			}
			sources = append(sources, search.Source{Alias: alias, Shard: shard})
		}
		if len(sources) == 0 && len(openWarnings) > 0 {
			return handleError(errorCode(openWarnings[0].Err), openWarnings[0].Alias, openWarnings[0].Err)
		}

		snippetChars := searchSnippetChars
		if snippetChars == 0 {
			snippetChars = cfg.MaxSnippetChars
		}
		limit := searchLimit
		if !cmd.Flags().Changed("limit") {
			limit = cfg.DefaultLimit
		}

		start := time.Now()
		res, err := search.Execute(cmd.Context(), search.Request{
			QueryText:    queryText,
			Level:        level,
			HeadingsOnly: searchHeadingsOnly,
			Sources:      sources,
			Offset:       searchOffset,
			Limit:        limit,
			ReturnAll:    searchAll,
			SnippetChars: snippetChars,
			Deadline:     time.Duration(cfg.QueryDeadlineMs) * time.Millisecond,
		}, cfg.MaxParallelSources)
		if err != nil {
			return handleError(ErrQueryInvalid, "", err)
		}
		res.Warnings = append(openWarnings, res.Warnings...)
		tookMs := time.Since(start).Milliseconds()

		return reportSearch(queryText, res, tookMs)
	},
}

func reportSearch(queryText string, res *search.Result, tookMs int64) error {
	results := make([]searchResultJSON, 0, len(res.Hits))
	for _, h := range res.Hits {
		results = append(results, searchResultJSON{
			Alias:       h.Alias,
			Lines:       fmt.Sprintf("%d-%d", h.LineStart, h.LineEnd),
			Score:       h.Score,
			HeadingPath: splitHeadingPath(h.HeadingPath),
			Level:       h.Level,
			Snippet:     h.Snippet,
		})
	}

	warnings := make([]Warning, 0, len(res.Warnings))
	wireWarnings := make([]searchWarningJSON, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, Warning{Alias: w.Alias, Kind: WarnSourceError, Message: w.Err.Error()})
		wireWarnings = append(wireWarnings, searchWarningJSON{Alias: w.Alias, Kind: WarnSourceError, Msg: w.Err.Error()})
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(searchResponseJSON{
			Query:    queryText,
			Total:    res.Total,
			TookMs:   tookMs,
			Warnings: wireWarnings,
			Results:  results,
		}, warnings, &Meta{Count: len(results), QueryTimeMs: tookMs})
		return nil
	}

	if len(results) == 0 {
		printlnOrJSON("no matches")
	}
	for _, r := range results {
		printlnOrJSON(fmt.Sprintf("%s  %s  %.2f  %s", accentStyle.Render(r.Alias), r.Lines, r.Score, strings.Join(r.HeadingPath, " > ")))
		printlnOrJSON(renderSnippet(r.Snippet))
	}
	for _, w := range res.Warnings {
		printlnOrJSON(fmt.Sprintf("warning: %s: %v", w.Alias, w.Err))
	}
	return nil
}

func init() {
	searchCmd.Flags().StringVar(&searchLevel, "level", "", `heading-level filter: "1,3", "1-3", "<=2"`)
	searchCmd.Flags().BoolVar(&searchHeadingsOnly, "headings-only", false, "match only heading_path/heading_title")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results to return")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "result offset for pagination")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "return every match, up to the hard cap")
	searchCmd.Flags().StringSliceVar(&searchAliases, "source", nil, "restrict the search to these aliases (default: all)")
	searchCmd.Flags().IntVar(&searchSnippetChars, "snippet-chars", 0, "snippet length cap (default: config max_snippet_chars)")
	rootCmd.AddCommand(searchCmd)
}
