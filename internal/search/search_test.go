package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blz-dev/blz/internal/index"
)

func buildShard(t *testing.T, alias string, blocks []index.Block) Source {
	t.Helper()
	dir := filepath.Join(t.TempDir(), alias)
	require.NoError(t, index.Build(dir, blocks), "Build(%s)", alias)
	shard, err := index.Open(dir)
	require.NoError(t, err, "Open(%s)", alias)
	t.Cleanup(func() { shard.Close() })
	return Source{Alias: alias, Shard: shard}
}

func TestExecuteMergesAcrossSources(t *testing.T) {
	a := buildShard(t, "alpha", []index.Block{
		{BlockID: "a1", HeadingPath: "Install", HeadingTitle: "Install", Content: "install the alpha package", Level: 1, LineStart: 1, LineEnd: 3},
	})
	b := buildShard(t, "beta", []index.Block{
		{BlockID: "b1", HeadingPath: "Install", HeadingTitle: "Install", Content: "install the beta package", Level: 1, LineStart: 1, LineEnd: 3},
	})

	res, err := Execute(context.Background(), Request{
		QueryText:    "install",
		Sources:      []Source{a, b},
		Limit:        10,
		SnippetChars: 280,
	}, 4)
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	if res.Hits[0].Score == res.Hits[1].Score {
		require.Less(t, res.Hits[0].Alias, res.Hits[1].Alias, "expected alias-ascending tie-break")
	}
}

func TestExecuteParseErrorShortCircuits(t *testing.T) {
	_, err := Execute(context.Background(), Request{QueryText: `"unterminated`}, 4)
	require.Error(t, err)
}

func TestExecuteDedupesIdenticalHits(t *testing.T) {
	a := buildShard(t, "alpha", []index.Block{
		{BlockID: "a1", HeadingPath: "Install", HeadingTitle: "Install", Content: "install install install", Level: 1, LineStart: 1, LineEnd: 3},
	})

	res, err := Execute(context.Background(), Request{
		QueryText: "install",
		Sources:   []Source{a, a},
		Limit:     10,
	}, 4)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1, "expected dedupe to collapse repeated hits")
}

func TestExecutePagination(t *testing.T) {
	blocks := []index.Block{
		{BlockID: "a1", HeadingPath: "One", HeadingTitle: "One", Content: "install", Level: 1, LineStart: 1, LineEnd: 2},
		{BlockID: "a2", HeadingPath: "Two", HeadingTitle: "Two", Content: "install", Level: 1, LineStart: 3, LineEnd: 4},
		{BlockID: "a3", HeadingPath: "Three", HeadingTitle: "Three", Content: "install", Level: 1, LineStart: 5, LineEnd: 6},
	}
	a := buildShard(t, "alpha", blocks)

	res, err := Execute(context.Background(), Request{
		QueryText: "install",
		Sources:   []Source{a},
		Offset:    1,
		Limit:     1,
	}, 4)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.Equal(t, 3, res.Total)
}

func TestExecuteSourceFailureBecomesWarning(t *testing.T) {
	a := buildShard(t, "alpha", []index.Block{
		{BlockID: "a1", HeadingPath: "One", HeadingTitle: "One", Content: "install", Level: 1, LineStart: 1, LineEnd: 2},
	})
	broken := buildShard(t, "broken", []index.Block{
		{BlockID: "b1", HeadingPath: "One", HeadingTitle: "One", Content: "install", Level: 1, LineStart: 1, LineEnd: 2},
	})
	broken.Shard.Close() // simulate a shard that fails mid-query

	res, err := Execute(context.Background(), Request{
		QueryText: "install",
		Sources:   []Source{a, broken},
		Limit:     10,
	}, 4)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "broken", res.Warnings[0].Alias)
	require.Len(t, res.Hits, 1, "expected the healthy source's hit despite the warning")
}

func TestEffectiveLimitCaps(t *testing.T) {
	require.Equal(t, maxEffectiveLimit, effectiveLimit(500, false))
	require.Equal(t, 30, effectiveLimit(10, false))
	require.Equal(t, maxReturnAllLimit, effectiveLimit(0, true))
}

func TestHeadingDepth(t *testing.T) {
	require.Equal(t, 0, headingDepth(""))
	require.Equal(t, 2, headingDepth("Intro > Install"))
}
