// Package retrieve resolves citations into exact text spans: symmetric
// line context, full-heading-section expansion, max-line truncation,
// and multi-range/multi-source batching.
package retrieve

import (
	"fmt"
	"strings"

	"github.com/blz-dev/blz/internal/citation"
	"github.com/blz-dev/blz/internal/store"
)

// Context selects how a requested range is expanded before reading.
type Context struct {
	// Lines requests a symmetric ±N line expansion (grep-style).
	Lines int
	// All requests expansion to the containing heading section.
	All bool
}

// Options bounds a retrieval request.
type Options struct {
	Context Context
	MaxLines int // 0 means unbounded
}

// Span is one resolved, possibly-truncated text range.
type Span struct {
	Alias     string
	Start     int
	End       int
	Text      string
	Truncated bool
}

// NotFoundError indicates alias has no committed source.
type NotFoundError struct{ Alias string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("retrieve: source %q not found", e.Alias) }

// OutOfRangeError indicates a requested line lies outside the document.
type OutOfRangeError struct {
	Alias     string
	Requested int
	Max       int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("retrieve: %s: line %d exceeds document length %d", e.Alias, e.Requested, e.Max)
}

// Request asks for one or more citation ranges on a single alias.
type Request struct {
	Alias  string
	Ranges []citation.Citation
}

// BatchResult is the outcome of resolving one alias's ranges: either a
// list of spans (input order preserved) or a structured error.
type BatchResult struct {
	Alias string
	Spans []Span
	Err   error
}

// Retriever resolves citations against a store.Manager.
type Retriever struct {
	mgr *store.Manager
}

// New returns a Retriever backed by mgr.
func New(mgr *store.Manager) *Retriever {
	return &Retriever{mgr: mgr}
}

// Resolve resolves every request independently; a failure on one alias
// does not prevent the others from succeeding.
func (r *Retriever) Resolve(reqs []Request, opts Options) []BatchResult {
	out := make([]BatchResult, len(reqs))
	for i, req := range reqs {
		out[i] = r.resolveOne(req, opts)
	}
	return out
}

func (r *Retriever) resolveOne(req Request, opts Options) BatchResult {
	if !r.mgr.Exists(req.Alias) {
		return BatchResult{Alias: req.Alias, Err: &NotFoundError{Alias: req.Alias}}
	}

	li, err := store.ReadLineIndex(r.mgr.LineIndexPath(req.Alias))
	if err != nil {
		return BatchResult{Alias: req.Alias, Err: fmt.Errorf("retrieve: %s: %w", req.Alias, err)}
	}
	lineCount := li.LineCount()

	var outline *store.OutlineDoc
	if opts.Context.All {
		outline, err = r.mgr.ReadOutline(req.Alias)
		if err != nil {
			return BatchResult{Alias: req.Alias, Err: fmt.Errorf("retrieve: %s: %w", req.Alias, err)}
		}
	}

	expanded := make([]citation.Citation, 0, len(req.Ranges))
	for _, c := range req.Ranges {
		if c.Start > lineCount {
			return BatchResult{Alias: req.Alias, Err: &OutOfRangeError{Alias: req.Alias, Requested: c.Start, Max: lineCount}}
		}
		expanded = append(expanded, expandRange(c, opts.Context, lineCount, outline))
	}

	merged := mergeRanges(expanded)

	f, err := r.mgr.OpenText(req.Alias)
	if err != nil {
		return BatchResult{Alias: req.Alias, Err: fmt.Errorf("retrieve: %s: %w", req.Alias, err)}
	}
	defer f.Close()

	spans := make([]Span, 0, len(merged))
	for _, c := range merged {
		text, truncated, err := readRange(f, li, c, opts.MaxLines)
		if err != nil {
			return BatchResult{Alias: req.Alias, Err: fmt.Errorf("retrieve: %s: %w", req.Alias, err)}
		}
		end := c.End
		if truncated && opts.MaxLines > 0 {
			end = c.Start + opts.MaxLines - 1
		}
		spans = append(spans, Span{Alias: req.Alias, Start: c.Start, End: end, Text: text, Truncated: truncated})
	}

	return BatchResult{Alias: req.Alias, Spans: spans}
}

func expandRange(c citation.Citation, ctx Context, lineCount int, outline *store.OutlineDoc) citation.Citation {
	switch {
	case ctx.All && outline != nil:
		if block, ok := containingBlock(outline, c); ok {
			c.Start, c.End = block.LineStart, block.LineEnd
		}
	case ctx.Lines > 0:
		c.Start -= ctx.Lines
		c.End += ctx.Lines
	}
	return c.Clamp(lineCount)
}

func containingBlock(outline *store.OutlineDoc, c citation.Citation) (store.OutlineBlock, bool) {
	for _, b := range outline.Blocks {
		if b.LineStart <= c.Start && c.End <= b.LineEnd {
			return b, true
		}
	}
	return store.OutlineBlock{}, false
}

// mergeRanges merges overlapping or adjacent (touching or within ±1)
// ranges into a single range, preserving input order
// of the first range in each merged group.
func mergeRanges(ranges []citation.Citation) []citation.Citation {
	if len(ranges) <= 1 {
		return ranges
	}
	merged := make([]citation.Citation, 0, len(ranges))
	for _, c := range ranges {
		absorbed := false
		for i := range merged {
			if merged[i].Adjacent(c) {
				if c.Start < merged[i].Start {
					merged[i].Start = c.Start
				}
				if c.End > merged[i].End {
					merged[i].End = c.End
				}
				for j := i + 1; j < len(merged); {
					if merged[i].Adjacent(merged[j]) {
						merged[i].Start = min(merged[i].Start, merged[j].Start)
						merged[i].End = max(merged[i].End, merged[j].End)
						merged = append(merged[:j], merged[j+1:]...)
						continue
					}
					j++
				}
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, c)
		}
	}
	return merged
}

func readRange(f interface {
	ReadAt(p []byte, off int64) (int, error)
}, li *store.LineIndex, c citation.Citation, maxLines int) (string, bool, error) {
	end := c.End
	truncated := false
	if maxLines > 0 && end-c.Start+1 > maxLines {
		end = c.Start + maxLines - 1
		truncated = true
	}

	start, stop, err := li.ByteRange(c.Start, end)
	if err != nil {
		return "", false, err
	}

	buf := make([]byte, stop-start)
	if len(buf) > 0 {
		if _, err := f.ReadAt(buf, start); err != nil {
			return "", false, err
		}
	}

	text := string(buf)
	if truncated {
		text = strings.TrimRight(text, "\n") + "\n[... truncated ...]\n"
	} else {
		text = strings.TrimSuffix(text, "\n")
	}
	return text, truncated, nil
}
