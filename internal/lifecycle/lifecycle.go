// Package lifecycle orchestrates the add/refresh/refresh_all/remove
// operations, wiring the fetcher, parser, store, and
// index packages into the all-or-nothing pipelines those operations
// require.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/blz-dev/blz/internal/fetcher"
	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/mdparse"
	"github.com/blz-dev/blz/internal/store"
)

// Controller orchestrates source lifecycle operations against one
// store.Manager and fetcher.Config.
type Controller struct {
	Manager *store.Manager
	Fetcher fetcher.Config
}

// New returns a Controller.
func New(mgr *store.Manager, fetchCfg fetcher.Config) *Controller {
	return &Controller{Manager: mgr, Fetcher: fetchCfg}
}

// AddSummary reports the outcome of a successful add.
type AddSummary struct {
	Alias        string
	LineCount    int
	HeadingCount int
	Bytes        int
}

// Add fetches url, parses it, and commits it as a brand-new source named
// alias. It fails if alias already exists or if the initial fetch
// returns NotModified (an impossible first response, treated as an
// error).
func (c *Controller) Add(ctx context.Context, alias, url string) (*AddSummary, error) {
	if err := store.ValidateAlias(alias); err != nil {
		return nil, err
	}

	res, err := fetcher.Fetch(ctx, c.Fetcher, url, "", "")
	if err != nil {
		return nil, fmt.Errorf("lifecycle: add %s: %w", alias, err)
	}
	if res.Outcome == fetcher.OutcomeNotModified {
		return nil, fmt.Errorf("lifecycle: add %s: initial fetch returned not-modified", alias)
	}

	staging, err := c.Manager.BeginAdd(alias)
	if err != nil {
		return nil, err
	}
	return c.commitFetch(staging, alias, url, res)
}

// RefreshSummary reports the outcome of a refresh.
type RefreshSummary struct {
	Alias     string
	Changed   bool
	LineCount int
	Err       error
}

// Refresh re-fetches alias's origin URL with conditional headers and
// either updates fetched_at only (NotModified), rewrites fetched_at, etag
// and last_modified (identical SHA-256), or rebuilds the source and
// archives the previous generation (content changed).
func (c *Controller) Refresh(ctx context.Context, alias string) RefreshSummary {
	meta, err := c.Manager.ReadMetadata(alias)
	if err != nil {
		return RefreshSummary{Alias: alias, Err: fmt.Errorf("lifecycle: refresh %s: %w", alias, err)}
	}

	res, err := fetcher.Fetch(ctx, c.Fetcher, meta.OriginURL, meta.ETag, meta.LastModified)
	if err != nil {
		return RefreshSummary{Alias: alias, Err: fmt.Errorf("lifecycle: refresh %s: %w", alias, err)}
	}

	if res.Outcome == fetcher.OutcomeNotModified {
		err := c.Manager.UpdateMetadataOnly(alias, func(m *store.Metadata) {
			m.FetchedAt = time.Now()
		})
		if err != nil {
			return RefreshSummary{Alias: alias, Err: err}
		}
		return RefreshSummary{Alias: alias, Changed: false, LineCount: meta.LineCount}
	}

	if res.SHA256 == meta.SHA256 {
		err := c.Manager.UpdateMetadataOnly(alias, func(m *store.Metadata) {
			m.FetchedAt = res.FetchedAt
			m.ETag = res.ETag
			m.LastModified = res.LastModified
		})
		if err != nil {
			return RefreshSummary{Alias: alias, Err: err}
		}
		return RefreshSummary{Alias: alias, Changed: false, LineCount: meta.LineCount}
	}

	staging, err := c.Manager.BeginRefresh(alias)
	if err != nil {
		return RefreshSummary{Alias: alias, Err: err}
	}
	summary, err := c.commitFetch(staging, alias, meta.OriginURL, res)
	if err != nil {
		return RefreshSummary{Alias: alias, Err: err}
	}
	return RefreshSummary{Alias: alias, Changed: true, LineCount: summary.LineCount}
}

// RefreshAll refreshes every known source, continuing past individual
// failures rather than aborting the batch.
func (c *Controller) RefreshAll(ctx context.Context) ([]RefreshSummary, error) {
	aliases, err := c.Manager.ListAliases()
	if err != nil {
		return nil, err
	}
	summaries := make([]RefreshSummary, 0, len(aliases))
	for _, alias := range aliases {
		summaries = append(summaries, c.Refresh(ctx, alias))
	}
	return summaries, nil
}

// Remove deletes alias's source directory entirely; no archive is
// retained.
func (c *Controller) Remove(alias string) error {
	return c.Manager.Remove(alias)
}

// RebuildIndex reconstructs alias's index from its already-committed
// outline and text, without re-fetching or touching the archive. The
// outline and text remain the source of truth, so a stale or corrupted
// shard can always be regenerated from them.
func (c *Controller) RebuildIndex(alias string) error {
	outline, err := c.Manager.ReadOutline(alias)
	if err != nil {
		return fmt.Errorf("lifecycle: rebuild index for %s: read outline: %w", alias, err)
	}
	text, err := c.Manager.ReadText(alias)
	if err != nil {
		return fmt.Errorf("lifecycle: rebuild index for %s: read text: %w", alias, err)
	}

	blocks := toIndexBlocks(fromStoreOutline(outline), string(text))
	err = c.Manager.RebuildIndex(alias, func(dir string) error {
		return index.Build(dir, blocks)
	})
	if err != nil {
		return fmt.Errorf("lifecycle: rebuild index for %s: %w", alias, err)
	}
	return nil
}

// fromStoreOutline adapts a committed store.OutlineDoc back into the
// mdparse.Outline shape toIndexBlocks expects, without re-parsing text.
func fromStoreOutline(doc *store.OutlineDoc) *mdparse.Outline {
	blocks := make([]mdparse.HeadingBlock, len(doc.Blocks))
	for i, b := range doc.Blocks {
		blocks[i] = mdparse.HeadingBlock{
			Level:     b.Level,
			Title:     b.Title,
			Path:      b.Path,
			LineStart: b.LineStart,
			LineEnd:   b.LineEnd,
			ByteStart: b.ByteStart,
			ByteEnd:   b.ByteEnd,
		}
	}
	return &mdparse.Outline{Blocks: blocks}
}

// commitFetch runs the shared parse -> stage -> index -> commit pipeline
// for both Add and content-changed Refresh.
func (c *Controller) commitFetch(staging *store.Staging, alias, url string, res *fetcher.Result) (*AddSummary, error) {
	text := string(res.Bytes)
	outline, err := mdparse.Parse(text)
	if err != nil {
		staging.Discard()
		return nil, fmt.Errorf("lifecycle: parse %s: %w", alias, err)
	}

	if err := staging.WriteText(res.Bytes); err != nil {
		staging.Discard()
		return nil, err
	}
	if err := staging.WriteOutline(toStoreOutline(outline)); err != nil {
		staging.Discard()
		return nil, err
	}
	li := store.BuildLineIndex(res.Bytes)
	if err := staging.WriteLineIndex(li.LineIndexOffsets()); err != nil {
		staging.Discard()
		return nil, err
	}

	blocks := toIndexBlocks(outline, text)
	if err := index.Build(staging.IndexDir(), blocks); err != nil {
		staging.Discard()
		return nil, fmt.Errorf("lifecycle: build index for %s: %w", alias, err)
	}

	staging.SetMetadata(store.Metadata{
		OriginURL:    url,
		Alias:        alias,
		ETag:         res.ETag,
		LastModified: res.LastModified,
		SHA256:       res.SHA256,
		FetchedAt:    res.FetchedAt,
		LineCount:    outline.LineCount,
		ByteCount:    len(res.Bytes),
	})

	if _, err := staging.Commit(); err != nil {
		return nil, fmt.Errorf("lifecycle: commit %s: %w", alias, err)
	}

	return &AddSummary{
		Alias:        alias,
		LineCount:    outline.LineCount,
		HeadingCount: countRealHeadings(outline),
		Bytes:        len(res.Bytes),
	}, nil
}

func countRealHeadings(outline *mdparse.Outline) int {
	n := 0
	for _, b := range outline.Blocks {
		if b.Level > 0 {
			n++
		}
	}
	return n
}

func toStoreOutline(outline *mdparse.Outline) store.OutlineDoc {
	blocks := make([]store.OutlineBlock, len(outline.Blocks))
	for i, b := range outline.Blocks {
		blocks[i] = store.OutlineBlock{
			Level:     b.Level,
			Title:     b.Title,
			Path:      b.Path,
			LineStart: b.LineStart,
			LineEnd:   b.LineEnd,
			ByteStart: b.ByteStart,
			ByteEnd:   b.ByteEnd,
		}
	}
	toc := make([]store.OutlineTOCEntry, len(outline.TOC))
	for i, e := range outline.TOC {
		toc[i] = store.OutlineTOCEntry{Level: e.Level, Title: e.Title, LineStart: e.LineStart}
	}
	return store.OutlineDoc{Blocks: blocks, TOC: toc}
}

func toIndexBlocks(outline *mdparse.Outline, text string) []index.Block {
	blocks := make([]index.Block, len(outline.Blocks))
	for i, b := range outline.Blocks {
		content := ""
		if b.ByteStart >= 0 && b.ByteEnd <= len(text) && b.ByteStart <= b.ByteEnd {
			content = text[b.ByteStart:b.ByteEnd]
		}
		blocks[i] = index.Block{
			BlockID:      blockID(i),
			HeadingPath:  joinPath(b.Path),
			HeadingTitle: b.Title,
			Content:      content,
			Level:        b.Level,
			LineStart:    b.LineStart,
			LineEnd:      b.LineEnd,
		}
	}
	return blocks
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += " > "
		}
		out += p
	}
	return out
}

func blockID(i int) string {
	return fmt.Sprintf("b%d", i)
}
