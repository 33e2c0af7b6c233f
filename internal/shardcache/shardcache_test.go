package shardcache

import (
	"os"
	"testing"
	"time"

	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/query"
	"github.com/blz-dev/blz/internal/store"
)

func commitShard(t *testing.T, mgr *store.Manager, alias string, blocks []index.Block) {
	t.Helper()
	st, err := mgr.BeginAdd(alias)
	if err != nil {
		t.Fatalf("BeginAdd: %v", err)
	}
	if err := st.WriteText([]byte("text\n")); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteOutline(store.OutlineDoc{}); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteLineIndex(store.BuildLineIndex([]byte("text\n")).LineIndexOffsets()); err != nil {
		t.Fatal(err)
	}
	if err := index.Build(st.IndexDir(), blocks); err != nil {
		t.Fatal(err)
	}
	st.SetMetadata(store.Metadata{Alias: alias, SHA256: "sha", FetchedAt: time.Now()})
	if _, err := st.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestGetOpensAndMemoizes(t *testing.T) {
	mgr := store.NewManager(t.TempDir(), 5)
	commitShard(t, mgr, "docs", []index.Block{{BlockID: "b0", Content: "install"}})

	c, err := New(mgr, 4, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Purge)

	s1, err := c.Get("docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s2, err := c.Get("docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected the cached shard to be reused")
	}
}

func TestGetReopensAfterGenerationBump(t *testing.T) {
	mgr := store.NewManager(t.TempDir(), 5)
	commitShard(t, mgr, "docs", []index.Block{{BlockID: "b0", Content: "install"}})

	c, err := New(mgr, 4, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Purge)

	first, err := c.Get("docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	st, err := mgr.BeginRefresh("docs")
	if err != nil {
		t.Fatalf("BeginRefresh: %v", err)
	}
	if err := st.WriteText([]byte("updated\n")); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteOutline(store.OutlineDoc{}); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteLineIndex(store.BuildLineIndex([]byte("updated\n")).LineIndexOffsets()); err != nil {
		t.Fatal(err)
	}
	if err := index.Build(st.IndexDir(), []index.Block{{BlockID: "b0", Content: "updated install"}}); err != nil {
		t.Fatal(err)
	}
	st.SetMetadata(store.Metadata{Alias: "docs", SHA256: "sha2", FetchedAt: time.Now()})
	if _, err := st.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	second, err := c.Get("docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh shard after the schema generation bumped")
	}
}

// stubRebuilder satisfies Rebuilder by rebuilding with fixed blocks,
// mimicking lifecycle.Controller.RebuildIndex without depending on it.
type stubRebuilder struct {
	dir    string
	blocks []index.Block
	calls  int
}

func (r *stubRebuilder) RebuildIndex(alias string) error {
	r.calls++
	if err := os.RemoveAll(r.dir); err != nil {
		return err
	}
	return index.Build(r.dir, r.blocks)
}

// stampStaleVersion rewrites the on-disk shard's version row directly,
// simulating a shard built by an older schema version.
func stampStaleVersion(t *testing.T, dir string) {
	t.Helper()
	shard, err := index.Open(dir)
	if err != nil {
		t.Fatalf("Open for stamping: %v", err)
	}
	if err := index.StampVersionForTest(shard, 999); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	shard.Close()
}

func TestGetRebuildsOnVersionMismatch(t *testing.T) {
	mgr := store.NewManager(t.TempDir(), 5)
	commitShard(t, mgr, "docs", []index.Block{{BlockID: "b0", Content: "install"}})
	stampStaleVersion(t, mgr.IndexDir("docs"))

	rebuilder := &stubRebuilder{dir: mgr.IndexDir("docs"), blocks: []index.Block{{BlockID: "b0", Content: "rebuilt"}}}
	c, err := New(mgr, 4, rebuilder)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Purge)

	shard, err := c.Get("docs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rebuilder.calls != 1 {
		t.Fatalf("rebuilder called %d times, want 1", rebuilder.calls)
	}

	ast, err := query.Parse("rebuilt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hits, err := shard.Search(ast, query.LevelFilter{}, false, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected the rebuilt shard to be queried, got %d hits", len(hits))
	}
}

func TestGetSurfacesDegradedWhenRebuildFails(t *testing.T) {
	mgr := store.NewManager(t.TempDir(), 5)
	commitShard(t, mgr, "docs", []index.Block{{BlockID: "b0", Content: "install"}})
	stampStaleVersion(t, mgr.IndexDir("docs"))

	// A NUL byte is never a valid path component; RebuildIndex fails before
	// it ever reaches the database layer.
	rebuilder := &stubRebuilder{dir: "\x00invalid"}
	c, err := New(mgr, 4, rebuilder)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Purge)

	if _, err := c.Get("docs"); err == nil {
		t.Fatalf("expected Get to surface the rebuild failure")
	}
}
