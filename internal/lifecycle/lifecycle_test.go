package lifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blz-dev/blz/internal/fetcher"
	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/store"
)

const doc = "# Intro\n\nWelcome to the install guide.\n\n## Install\n\nRun the installer.\n"

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	etag := `"v1"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newController(t *testing.T) *Controller {
	t.Helper()
	root := t.TempDir()
	mgr := store.NewManager(root, 5)
	cfg := fetcher.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	return New(mgr, cfg)
}

func TestAddFetchesParsesAndIndexes(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	summary, err := c.Add(context.Background(), "example", srv.URL)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if summary.HeadingCount != 2 {
		t.Fatalf("heading count = %d, want 2", summary.HeadingCount)
	}
	if !c.Manager.Exists("example") {
		t.Fatalf("expected source to be committed")
	}
}

func TestAddRejectsDuplicateAlias(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	if _, err := c.Add(context.Background(), "example", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Add(context.Background(), "example", srv.URL); err == nil {
		t.Fatalf("expected error re-adding an existing alias")
	}
}

func TestRefreshNotModifiedLeavesSourceUnchanged(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	if _, err := c.Add(context.Background(), "example", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before, err := c.Manager.ReadMetadata("example")
	if err != nil {
		t.Fatal(err)
	}

	res := c.Refresh(context.Background(), "example")
	if res.Err != nil {
		t.Fatalf("Refresh: %v", res.Err)
	}
	if res.Changed {
		t.Fatalf("expected not-modified refresh to report unchanged")
	}

	after, err := c.Manager.ReadMetadata("example")
	if err != nil {
		t.Fatal(err)
	}
	if after.SchemaGeneration != before.SchemaGeneration {
		t.Fatalf("not-modified refresh should not bump schema generation")
	}
}

func TestRefreshContentChangeRebuildsAndArchives(t *testing.T) {
	bodies := []string{doc, "# Intro\n\nUpdated install guide.\n"}
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := bodies[callCount]
		if callCount < len(bodies)-1 {
			callCount++
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := newController(t)
	if _, err := c.Add(context.Background(), "example", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res := c.Refresh(context.Background(), "example")
	if res.Err != nil {
		t.Fatalf("Refresh: %v", res.Err)
	}
	if !res.Changed {
		t.Fatalf("expected content change to be detected")
	}

	archives, err := c.Manager.ArchiveEntries("example")
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 1 {
		t.Fatalf("archives = %v, want exactly 1", archives)
	}
}

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	if _, err := c.Add(context.Background(), "good", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}

	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(doc))
	}))
	if _, err := c.Add(context.Background(), "bad", badSrv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	badSrv.Close() // now unreachable for refresh

	summaries, err := c.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %+v, want 2", summaries)
	}
	var sawFailure, sawSuccess bool
	for _, s := range summaries {
		if s.Alias == "bad" && s.Err != nil {
			sawFailure = true
		}
		if s.Alias == "good" && s.Err == nil {
			sawSuccess = true
		}
	}
	if !sawFailure || !sawSuccess {
		t.Fatalf("summaries = %+v, want one failure and one success", summaries)
	}
}

func TestRebuildIndexReindexesFromCommittedOutline(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	if _, err := c.Add(context.Background(), "example", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before, err := c.Manager.ReadMetadata("example")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.RebuildIndex("example"); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	after, err := c.Manager.ReadMetadata("example")
	if err != nil {
		t.Fatal(err)
	}
	if after.SHA256 != before.SHA256 || after.FetchedAt != before.FetchedAt {
		t.Fatalf("RebuildIndex must not touch metadata: before=%+v after=%+v", before, after)
	}

	shard, err := index.Open(c.Manager.IndexDir("example"))
	if err != nil {
		t.Fatalf("open rebuilt index: %v", err)
	}
	defer shard.Close()
}

func TestRemoveDeletesSource(t *testing.T) {
	srv := newServer(t, doc)
	c := newController(t)

	if _, err := c.Add(context.Background(), "example", srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Remove("example"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Manager.Exists("example") {
		t.Fatalf("expected source to be removed")
	}
}
