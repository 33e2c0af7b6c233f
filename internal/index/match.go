package index

import (
	"fmt"
	"strings"

	"github.com/blz-dev/blz/internal/query"
)

// buildMatchQuery translates a parsed query.Node into an FTS5 MATCH
// expression. Field-qualified nodes (#Title / path:Title) are scoped to
// the heading_path column, which already contains the leaf title as its
// final path segment. When headingsOnly is set the whole expression is
// scoped to heading_path and heading_title.
func buildMatchQuery(n *query.Node, headingsOnly bool) (string, error) {
	expr, err := translateNode(n)
	if err != nil {
		return "", err
	}
	if headingsOnly {
		return "{heading_path heading_title} : (" + expr + ")", nil
	}
	return expr, nil
}

func translateNode(n *query.Node) (string, error) {
	switch n.Kind {
	case query.NodeTerm:
		return scopedTerm(n.Field, sanitizeFTSTerm(foldIfHeadingPath(n.Field, n.Text))), nil
	case query.NodePhrase:
		return scopedTerm(n.Field, quoteFTSPhrase(foldIfHeadingPath(n.Field, n.Text))), nil
	case query.NodeAnd:
		return joinChildren(n.Children, "AND")
	case query.NodeOr:
		return joinChildren(n.Children, "OR")
	case query.NodeNot:
		child, err := translateNode(n.Child)
		if err != nil {
			return "", err
		}
		return "NOT " + parenthesize(n.Child, child), nil
	case query.NodeMatchAll:
		return "", fmt.Errorf("index: match-all has no FTS expression")
	default:
		return "", fmt.Errorf("index: unknown query node kind %d", n.Kind)
	}
}

func joinChildren(children []*query.Node, op string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		expr, err := translateNode(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, parenthesize(c, expr))
	}
	return strings.Join(parts, " "+op+" "), nil
}

// parenthesize wraps compound children so operator precedence survives
// composition into a larger expression.
func parenthesize(n *query.Node, expr string) string {
	switch n.Kind {
	case query.NodeAnd, query.NodeOr:
		return "(" + expr + ")"
	default:
		return expr
	}
}

// foldIfHeadingPath applies Unicode-aware case folding to #Title /
// path:Title qualifier text, since heading-path comparisons are
// case-insensitive. Free-text terms are left as-is: the FTS5 tokenizer
// already folds them.
func foldIfHeadingPath(field query.Field, text string) string {
	if field == query.FieldHeadingPath {
		return headingFold(text)
	}
	return text
}

func scopedTerm(field query.Field, term string) string {
	if field == query.FieldHeadingPath {
		return "heading_path : " + term
	}
	return term
}

// sanitizeFTSTerm quotes a free-text term if it contains characters FTS5
// would otherwise interpret as syntax (hyphens, colons), mirroring the
// safety net a naive tokenizer needs around SQLite's query grammar.
func sanitizeFTSTerm(term string) string {
	if term == "" {
		return `""`
	}
	if strings.ContainsAny(term, "-:^*\"") {
		return quoteFTSPhrase(term)
	}
	return term
}

func quoteFTSPhrase(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
