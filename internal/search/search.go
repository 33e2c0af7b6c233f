// Package search implements the multi-source query planner and executor:
// per-source query plans executed in bounded parallel, then merged,
// deduplicated, ranked, and paginated.
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/query"
)

// maxReturnAllLimit bounds "return all" mode with a hard cap.
const maxReturnAllLimit = 10_000

// maxEffectiveLimit bounds the per-source limit multiplier:
// effective = min(1000, requested_limit * 3).
const maxEffectiveLimit = 1000

// Source is one searchable shard and the alias its hits are attributed to.
type Source struct {
	Alias string
	Shard *index.Shard
}

// Request describes one user-facing search call.
type Request struct {
	QueryText    string
	Level        query.LevelFilter
	HeadingsOnly bool
	Sources      []Source
	Offset       int
	Limit        int
	ReturnAll    bool
	SnippetChars int
	Deadline     time.Duration
}

// Hit is one merged, ranked result, ready for citation formatting.
type Hit struct {
	Alias        string
	Score        float64
	LineStart    int
	LineEnd      int
	HeadingPath  string
	HeadingTitle string
	Level        int
	Snippet      string
}

// SourceWarning reports a per-source execution failure that was
// downgraded to a warning rather than failing the whole request.
type SourceWarning struct {
	Alias string
	Err   error
}

// Result is the full response to a Request.
type Result struct {
	Hits     []Hit
	Warnings []SourceWarning
	Total    int // count after dedupe, before pagination
}

// Execute runs the parse -> plan -> execute -> merge -> dedupe -> rank ->
// page pipeline. A parse error short-circuits and is returned directly;
// per-source execution errors become warnings.
func Execute(ctx context.Context, req Request, parallelism int) (*Result, error) {
	ast, err := query.Parse(req.QueryText)
	if err != nil {
		return nil, err
	}

	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	effective := effectiveLimit(req.Limit, req.ReturnAll)

	if parallelism <= 0 {
		parallelism = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	type sourceResult struct {
		alias string
		hits  []index.Hit
		err   error
	}
	results := make([]sourceResult, len(req.Sources))

	for i, src := range req.Sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = sourceResult{alias: src.Alias, err: gctx.Err()}
				return nil
			default:
			}
			hits, err := src.Shard.Search(ast, req.Level, req.HeadingsOnly, effective)
			results[i] = sourceResult{alias: src.Alias, hits: hits, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var merged []Hit
	var warnings []SourceWarning
	for _, r := range results {
		if r.err != nil {
			warnings = append(warnings, SourceWarning{Alias: r.alias, Err: r.err})
			continue
		}
		for _, h := range r.hits {
			merged = append(merged, Hit{
				Alias:        r.alias,
				Score:        h.Score,
				LineStart:    h.LineStart,
				LineEnd:      h.LineEnd,
				HeadingPath:  h.HeadingPath,
				HeadingTitle: h.HeadingTitle,
				Level:        h.Level,
				Snippet:      snippet(h.Content, req.SnippetChars),
			})
		}
	}

	merged = dedupe(merged)
	sortHits(merged)
	total := len(merged)

	pageLimit := maxReturnAllLimit
	if !req.ReturnAll {
		pageLimit = req.Limit
	}
	paged := paginate(merged, req.Offset, pageLimit)

	return &Result{Hits: paged, Warnings: warnings, Total: total}, nil
}

func effectiveLimit(requested int, returnAll bool) int {
	if returnAll {
		return maxReturnAllLimit
	}
	if requested <= 0 {
		requested = 10
	}
	effective := requested * 3
	if effective > maxEffectiveLimit {
		effective = maxEffectiveLimit
	}
	return effective
}

// dedupe removes hits sharing (alias, line_start, line_end, heading_path),
// keeping the first occurrence.
func dedupe(hits []Hit) []Hit {
	seen := make(map[string]bool, len(hits))
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		key := h.Alias + "\x00" + strconv.Itoa(h.LineStart) + "\x00" + strconv.Itoa(h.LineEnd) + "\x00" + h.HeadingPath
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// sortHits orders by score desc, then the tie-breakers:
// lower line_start first, shallower heading_path depth, alias ascending.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LineStart != b.LineStart {
			return a.LineStart < b.LineStart
		}
		ad, bd := headingDepth(a.HeadingPath), headingDepth(b.HeadingPath)
		if ad != bd {
			return ad < bd
		}
		return a.Alias < b.Alias
	})
}

func headingDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, " > ") + 1
}

func paginate(hits []Hit, offset, limit int) []Hit {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(hits) {
		return nil
	}
	end := len(hits)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return hits[offset:end]
}

func snippet(content string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 280
	}
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	return string(runes[:maxChars]) + "…"
}
