package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blz-dev/blz/internal/query"
)

func buildTestShard(t *testing.T) *Shard {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "index")
	blocks := []Block{
		{BlockID: "b0", HeadingPath: "", HeadingTitle: "", Content: "Welcome to the docs.", Level: 0, LineStart: 1, LineEnd: 1},
		{BlockID: "b1", HeadingPath: "Intro", HeadingTitle: "Intro", Content: "This project helps you install things fast.", Level: 1, LineStart: 2, LineEnd: 4},
		{BlockID: "b2", HeadingPath: "Intro > Install", HeadingTitle: "Install", Content: "Run the installer to install the package.", Level: 2, LineStart: 5, LineEnd: 7},
		{BlockID: "b3", HeadingPath: "Usage", HeadingTitle: "Usage", Content: "Usage examples and configuration options.", Level: 1, LineStart: 8, LineEnd: 10},
	}
	require.NoError(t, Build(dir, blocks))
	shard, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { shard.Close() })
	return shard
}

func TestSearchFreeTextRanksByRelevance(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("install")
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "b2", hits[0].BlockID, "want b2 (two occurrences of install) to rank first")
}

func TestSearchHeadingQualifier(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("#Install")
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "b2", hits[0].BlockID)
}

func TestSearchHeadingsOnlyExcludesBodyMatches(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("examples")
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, true, 10)
	require.NoError(t, err)
	require.Empty(t, hits, "headings_only should not match body-only term")
}

func TestSearchLevelFilter(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("install OR usage OR configuration")
	require.NoError(t, err)
	level, err := query.ParseLevelFilter("1")
	require.NoError(t, err)
	hits, err := shard.Search(ast, level, false, 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.Equal(t, 1, h.Level, "hit %s should be level 1 only", h.BlockID)
	}
}

func TestSearchMatchAllReturnsEverythingInDocumentOrder(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("")
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)
	for i := 1; i < len(hits); i++ {
		require.GreaterOrEqual(t, hits[i].LineStart, hits[i-1].LineStart, "match-all hits must stay in document order")
	}
}

func TestSearchPhraseQuery(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse(`"install the package"`)
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "b2", hits[0].BlockID)
}

func TestSearchBooleanNot(t *testing.T) {
	shard := buildTestShard(t)

	ast, err := query.Parse("install NOT package")
	require.NoError(t, err)
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.NotEqual(t, "b2", h.BlockID, "NOT package should exclude b2")
	}
}

func TestOpenRejectsVersionMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	require.NoError(t, Build(dir, nil))
	shard, err := Open(dir)
	require.NoError(t, err)
	_, err = shard.db.Exec(`UPDATE meta SET value = '999' WHERE key = 'version'`)
	require.NoError(t, err)
	shard.Close()

	_, err = Open(dir)
	require.ErrorIs(t, err, ErrVersionMismatch)
}
