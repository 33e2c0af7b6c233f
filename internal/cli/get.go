package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blz-dev/blz/internal/citation"
	"github.com/blz-dev/blz/internal/retrieve"
)

var (
	getContextLines int
	getSection      bool
	getMaxLines     int
)

type getRangeJSON struct {
	Lines     string `json:"lines"`
	Snippet   string `json:"snippet"`
	Truncated bool   `json:"truncated"`
}

type getRequestJSON struct {
	Alias   string         `json:"alias"`
	Snippet string         `json:"snippet,omitempty"`
	Ranges  []getRangeJSON `json:"ranges"`
}

var getCmd = &cobra.Command{
	Use:   "get <citation>...",
	Short: "Retrieve exact text spans by citation (alias:start-end)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grouped := map[string][]citation.Citation{}
		var order []string
		for _, arg := range args {
			c, err := citation.Parse(arg)
			if err != nil {
				return handleError(ErrInvalidInput, "", err)
			}
			if _, ok := grouped[c.Alias]; !ok {
				order = append(order, c.Alias)
			}
			grouped[c.Alias] = append(grouped[c.Alias], c)
		}

		reqs := make([]retrieve.Request, 0, len(order))
		for _, alias := range order {
			reqs = append(reqs, retrieve.Request{Alias: alias, Ranges: grouped[alias]})
		}

		retriever := retrieve.New(manager)
		results := retriever.Resolve(reqs, retrieve.Options{
			Context:  retrieve.Context{Lines: getContextLines, All: getSection},
			MaxLines: getMaxLines,
		})

		return reportGet(results)
	},
}

func reportGet(results []retrieve.BatchResult) error {
	out := make([]getRequestJSON, 0, len(results))
	var warnings []Warning
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, Warning{Alias: r.Alias, Kind: WarnSourceError, Message: r.Err.Error()})
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		ranges := make([]getRangeJSON, 0, len(r.Spans))
		for _, s := range r.Spans {
			ranges = append(ranges, getRangeJSON{
				Lines:     fmt.Sprintf("%d-%d", s.Start, s.End),
				Snippet:   s.Text,
				Truncated: s.Truncated,
			})
		}
		req := getRequestJSON{Alias: r.Alias, Ranges: ranges}
		if len(ranges) == 1 {
			req.Snippet = ranges[0].Snippet
		}
		out = append(out, req)
	}

	if len(out) == 0 && firstErr != nil {
		return handleError(errorCode(firstErr), aliasOf(firstErr), firstErr)
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(map[string]interface{}{"requests": out}, warnings, &Meta{Count: len(out)})
		return nil
	}

	for _, r := range out {
		for _, rg := range r.Ranges {
			printlnOrJSON(fmt.Sprintf("%s:%s", accentStyle.Render(r.Alias), rg.Lines))
			printlnOrJSON(renderSnippet(rg.Snippet))
			if rg.Truncated {
				printlnOrJSON(mutedStyle.Render("(truncated)"))
			}
		}
	}
	for _, w := range warnings {
		printlnOrJSON(fmt.Sprintf("warning: %s: %s", w.Alias, w.Message))
	}
	return nil
}

func init() {
	getCmd.Flags().IntVar(&getContextLines, "context", 0, "symmetric +/-N line expansion around each range")
	getCmd.Flags().BoolVar(&getSection, "section", false, "expand each range to its containing heading section")
	getCmd.Flags().IntVar(&getMaxLines, "max-lines", 0, "truncate any resolved range beyond this many lines")
	rootCmd.AddCommand(getCmd)
}
