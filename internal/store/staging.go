package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// archiveTimestampLayout produces sortable, filesystem-safe directory
// names for archived snapshots: 20060102T150405.000000000Z.
const archiveTimestampLayout = "20060102T150405.000000000Z"

// Staging accumulates the files for one add or refresh operation so that
// a reader never observes a partially written source
// ("writers never mutate live files directly").
type Staging struct {
	mgr     *Manager
	alias   string
	layout  layout
	isFirst bool
	meta    Metadata
	lock    *flock.Flock
}

// BeginAdd starts staging a brand-new source. It fails if alias already
// has a committed source.
func (m *Manager) BeginAdd(alias string) (*Staging, error) {
	if err := ValidateAlias(alias); err != nil {
		return nil, err
	}
	if m.Exists(alias) {
		return nil, fmt.Errorf("store: alias %q already exists", alias)
	}
	return m.begin(alias, true)
}

// BeginRefresh starts staging a re-fetch of an existing source. It fails
// if alias has no committed source yet (use BeginAdd first).
func (m *Manager) BeginRefresh(alias string) (*Staging, error) {
	if err := ValidateAlias(alias); err != nil {
		return nil, err
	}
	if !m.Exists(alias) {
		return nil, fmt.Errorf("store: alias %q does not exist", alias)
	}
	return m.begin(alias, false)
}

func (m *Manager) begin(alias string, isFirst bool) (*Staging, error) {
	l := m.layout(alias)
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create source dir: %w", err)
	}

	fl := flock.New(l.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("store: lock %q: %w", alias, err)
	}
	if !locked {
		return nil, fmt.Errorf("store: %q is locked by another process", alias)
	}

	return &Staging{mgr: m, alias: alias, layout: l, isFirst: isFirst, lock: fl}, nil
}

// WriteText stages the fetched document body.
func (s *Staging) WriteText(data []byte) error {
	return atomicWrite(s.layout.textTmpPath(), data, 0o644)
}

// WriteOutline stages the parsed heading outline.
func (s *Staging) WriteOutline(doc OutlineDoc) error {
	data, err := marshalOutline(doc)
	if err != nil {
		return err
	}
	return atomicWrite(s.layout.outlineTmpPath(), data, 0o644)
}

// WriteLineIndex stages the line-offset sidecar used for bounded-cost
// ranged retrieval from large documents.
func (s *Staging) WriteLineIndex(offsets []int64) error {
	data, err := encodeLineIndex(offsets)
	if err != nil {
		return err
	}
	return atomicWrite(s.layout.lineIndexTmpPath(), data, 0o644)
}

// SetMetadata records the metadata that will be committed alongside the
// staged files. Commit fills in SchemaGeneration.
func (s *Staging) SetMetadata(m Metadata) {
	s.meta = m
}

// IndexDir returns the staging directory a caller should build a fresh
// FTS5 shard in; Commit swaps it in atomically alongside the other files.
func (s *Staging) IndexDir() string {
	return s.layout.indexStagingDir()
}

// Discard releases the lock and removes any staged-but-uncommitted files,
// leaving the live source (if any) untouched.
func (s *Staging) Discard() error {
	defer s.unlock()
	for _, p := range []string{
		s.layout.textTmpPath(),
		s.layout.metadataTmpPath(),
		s.layout.outlineTmpPath(),
		s.layout.lineIndexTmpPath(),
	} {
		_ = os.Remove(p)
	}
	_ = os.RemoveAll(s.layout.indexStagingDir())
	if s.isFirst {
		// Nothing was ever live; clean up the empty source dir too.
		_ = os.Remove(s.layout.dir)
	}
	return nil
}

func (s *Staging) unlock() {
	_ = s.lock.Unlock()
}

// Commit atomically publishes the staged files as the new live snapshot,
// archiving the previous generation first. Identical-content
// refreshes that only need a metadata touch-up should use
// Manager.UpdateMetadataOnly instead of staging a full commit.
func (s *Staging) Commit() (Metadata, error) {
	defer s.unlock()

	generation := 1
	if !s.isFirst {
		prev, err := readMetadata(s.layout.metadataPath())
		if err != nil {
			return Metadata{}, fmt.Errorf("store: read previous metadata: %w", err)
		}
		generation = prev.SchemaGeneration + 1

		if err := s.archiveCurrent(); err != nil {
			return Metadata{}, err
		}
	}
	s.meta.SchemaGeneration = generation
	s.meta.ParserVersion = ParserVersion
	s.meta.IndexVersion = IndexVersion
	s.meta.SchemaVersion = SchemaVersion

	if err := writeMetadata(s.layout.metadataTmpPath(), s.meta); err != nil {
		return Metadata{}, err
	}

	renames := [][2]string{
		{s.layout.textTmpPath(), s.layout.textPath()},
		{s.layout.outlineTmpPath(), s.layout.outlinePath()},
		{s.layout.lineIndexTmpPath(), s.layout.lineIndexPath()},
		{s.layout.metadataTmpPath(), s.layout.metadataPath()},
	}
	for _, r := range renames {
		if err := os.Rename(r[0], r[1]); err != nil {
			return Metadata{}, fmt.Errorf("store: publish %s: %w", filepath.Base(r[1]), err)
		}
	}

	if _, err := os.Stat(s.layout.indexStagingDir()); err == nil {
		_ = os.RemoveAll(s.layout.indexDir())
		if err := os.Rename(s.layout.indexStagingDir(), s.layout.indexDir()); err != nil {
			return Metadata{}, fmt.Errorf("store: publish index: %w", err)
		}
	}

	if err := s.mgr.enforceRetention(s.alias); err != nil {
		return Metadata{}, err
	}

	return s.meta, nil
}

// archiveCurrent moves the currently-live snapshot into archive/<ts>/
// before the new one is published, so the previous generation remains on
// disk under archive/<ts>/.
func (s *Staging) archiveCurrent() error {
	ts := archiveTimestamp()
	dest := filepath.Join(s.layout.archiveDir(), ts)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("store: create archive dir: %w", err)
	}

	moves := map[string]string{
		s.layout.textPath():      filepath.Join(dest, "text"),
		s.layout.outlinePath():   filepath.Join(dest, "outline"),
		s.layout.metadataPath(): filepath.Join(dest, "metadata"),
	}
	if _, err := os.Stat(s.layout.lineIndexPath()); err == nil {
		moves[s.layout.lineIndexPath()] = filepath.Join(dest, "lines.idx")
	}
	for src, dst := range moves {
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("store: archive %s: %w", filepath.Base(src), err)
		}
	}
	if _, err := os.Stat(s.layout.indexDir()); err == nil {
		if err := os.Rename(s.layout.indexDir(), filepath.Join(dest, "index")); err != nil {
			return fmt.Errorf("store: archive index: %w", err)
		}
	}
	return nil
}

func archiveTimestamp() string {
	return timeNow().UTC().Format(archiveTimestampLayout)
}

// timeNow is overridden in tests so archive ordering is deterministic.
var timeNow = time.Now

// enforceRetention deletes the oldest archived snapshots beyond
// ArchiveRetention.
func (m *Manager) enforceRetention(alias string) error {
	if m.ArchiveRetention <= 0 {
		return nil
	}
	names, err := m.ArchiveEntries(alias)
	if err != nil {
		return err
	}
	if len(names) <= m.ArchiveRetention {
		return nil
	}
	sort.Strings(names)
	excess := names[:len(names)-m.ArchiveRetention]
	archiveDir := m.layout(alias).archiveDir()
	for _, n := range excess {
		if err := os.RemoveAll(filepath.Join(archiveDir, n)); err != nil {
			return fmt.Errorf("store: prune archive %s: %w", n, err)
		}
	}
	return nil
}

// RebuildIndex rebuilds alias's index in place, without touching text,
// outline, metadata, or the archive. build receives a fresh staging
// directory to populate; on success the result atomically replaces the
// live index directory under the alias's lock. Used to recover from a
// stale or incompatible on-disk index without a full refresh.
func (m *Manager) RebuildIndex(alias string, build func(stagingDir string) error) error {
	l := m.layout(alias)

	fl := flock.New(l.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("store: lock %q: %w", alias, err)
	}
	if !locked {
		return fmt.Errorf("store: %q is locked by another process", alias)
	}
	defer fl.Unlock()

	staging := l.indexStagingDir()
	_ = os.RemoveAll(staging)
	if err := build(staging); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("store: rebuild index for %q: %w", alias, err)
	}

	_ = os.RemoveAll(l.indexDir())
	if err := os.Rename(staging, l.indexDir()); err != nil {
		return fmt.Errorf("store: publish rebuilt index for %q: %w", alias, err)
	}
	return nil
}

// UpdateMetadataOnly rewrites alias's metadata in place without archiving
// or bumping the schema generation. It is used when a refresh fetches
// identical content (same SHA-256): the source is treated as unchanged
// and only fetched_at/etag/last_modified move.
func (m *Manager) UpdateMetadataOnly(alias string, mutate func(*Metadata)) error {
	l := m.layout(alias)

	fl := flock.New(l.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("store: lock %q: %w", alias, err)
	}
	if !locked {
		return fmt.Errorf("store: %q is locked by another process", alias)
	}
	defer fl.Unlock()

	meta, err := readMetadata(l.metadataPath())
	if err != nil {
		return fmt.Errorf("store: read metadata: %w", err)
	}
	mutate(meta)
	return writeMetadata(l.metadataPath(), *meta)
}
