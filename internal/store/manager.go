package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Manager owns the on-disk layout rooted at a data directory: each source
// lives at <Root>/<alias>/.
type Manager struct {
	Root             string
	ArchiveRetention int
}

// NewManager returns a Manager rooted at root, with retention applied to
// archived snapshots.
func NewManager(root string, retention int) *Manager {
	if retention < 0 {
		retention = 0
	}
	return &Manager{Root: root, ArchiveRetention: retention}
}

func (m *Manager) layout(alias string) layout {
	return newLayout(m.Root, alias)
}

// SourceDir returns the directory holding alias's live files.
func (m *Manager) SourceDir(alias string) string {
	return m.layout(alias).dir
}

// Exists reports whether alias has a committed (non-staged) source.
func (m *Manager) Exists(alias string) bool {
	_, err := os.Stat(m.layout(alias).textPath())
	return err == nil
}

// ListAliases returns the aliases with a committed source, sorted.
func (m *Manager) ListAliases() ([]string, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list sources: %w", err)
	}
	var aliases []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if m.Exists(e.Name()) {
			aliases = append(aliases, e.Name())
		}
	}
	sort.Strings(aliases)
	return aliases, nil
}

// ReadMetadata loads alias's committed metadata.
func (m *Manager) ReadMetadata(alias string) (*Metadata, error) {
	return readMetadata(m.layout(alias).metadataPath())
}

// ReadOutline loads alias's committed outline.
func (m *Manager) ReadOutline(alias string) (*OutlineDoc, error) {
	return readOutline(m.layout(alias).outlinePath())
}

// ReadText loads alias's full committed text into memory. Callers doing
// ranged reads over large documents should prefer OpenText.
func (m *Manager) ReadText(alias string) ([]byte, error) {
	return os.ReadFile(m.layout(alias).textPath())
}

// OpenText opens alias's committed text for ReadAt-based access, so a
// retrieval of a handful of lines from a multi-million-line document does
// not require reading the whole file.
func (m *Manager) OpenText(alias string) (*os.File, error) {
	return os.Open(m.layout(alias).textPath())
}

// LineIndexPath returns the path to alias's line-offset sidecar.
func (m *Manager) LineIndexPath(alias string) string {
	return m.layout(alias).lineIndexPath()
}

// IndexDir returns the directory holding alias's live FTS5 shard.
func (m *Manager) IndexDir(alias string) string {
	return m.layout(alias).indexDir()
}

// ArchiveEntries lists alias's archived snapshot directory names, oldest
// first (they are named from a sortable UTC timestamp).
func (m *Manager) ArchiveEntries(alias string) ([]string, error) {
	dir := m.layout(alias).archiveDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list archive: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ArchiveSnapshot describes one archived generation of a source, as
// returned by an "archive list" operation.
type ArchiveSnapshot struct {
	Timestamp string
	Metadata  Metadata
}

// ReadArchive loads the metadata for one archived snapshot.
func (m *Manager) ReadArchive(alias, timestamp string) (*Metadata, error) {
	path := filepath.Join(m.layout(alias).archiveDir(), timestamp, "metadata")
	return readMetadata(path)
}

// Remove deletes alias's source directory entirely, including archives
// and the live FTS5 shard. It is not transactional: callers that need the
// removal to be all-or-nothing should hold the alias's lock.
func (m *Manager) Remove(alias string) error {
	if err := ValidateAlias(alias); err != nil {
		return err
	}
	return os.RemoveAll(m.layout(alias).dir)
}
