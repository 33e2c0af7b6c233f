package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blz-dev/blz/internal/query"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8FA8C8"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// renderSnippet renders a content snippet as markdown when stdout is a
// terminal; piped output stays plain so scripts see raw text.
func renderSnippet(content string) string {
	if !isTTY() {
		return content
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// parseLevelFlag parses a --level flag value into a query.LevelFilter,
// wrapping a parse failure as a usage error (exit 2).
func parseLevelFlag(s string) (query.LevelFilter, error) {
	lf, err := query.ParseLevelFilter(s)
	if err != nil {
		return query.LevelFilter{}, fmtUsage("%v", err)
	}
	return lf, nil
}

func splitHeadingPath(path string) []string {
	if path == "" {
		return []string{}
	}
	return strings.Split(path, " > ")
}

type row []string

// renderTable renders a minimal column-aligned plain-text table; the last
// column is left unpadded so long values don't force a wrap.
func renderTable(headers row, rows []row) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var b strings.Builder
	writeRow := func(r row, style lipgloss.Style) {
		for i, c := range r {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := c
			if i < len(r)-1 {
				cell = padRight(c, widths[i])
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	writeRow(headers, boldStyle)
	for _, r := range rows {
		writeRow(r, lipgloss.NewStyle())
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
