package store

import "path/filepath"

// layout centralizes the on-disk paths for one source.
type layout struct {
	dir string
}

func newLayout(root, alias string) layout {
	return layout{dir: filepath.Join(root, alias)}
}

func (l layout) textPath() string      { return filepath.Join(l.dir, "text") }
func (l layout) metadataPath() string  { return filepath.Join(l.dir, "metadata") }
func (l layout) outlinePath() string   { return filepath.Join(l.dir, "outline") }
func (l layout) lineIndexPath() string { return filepath.Join(l.dir, "lines.idx") }
func (l layout) indexDir() string      { return filepath.Join(l.dir, "index") }
func (l layout) indexStagingDir() string {
	return filepath.Join(l.dir, "index.new")
}
func (l layout) archiveDir() string { return filepath.Join(l.dir, "archive") }
func (l layout) lockPath() string   { return filepath.Join(l.dir, ".lock") }

func (l layout) textTmpPath() string      { return filepath.Join(l.dir, "text.tmp") }
func (l layout) metadataTmpPath() string  { return filepath.Join(l.dir, "metadata.tmp") }
func (l layout) outlineTmpPath() string   { return filepath.Join(l.dir, "outline.tmp") }
func (l layout) lineIndexTmpPath() string { return filepath.Join(l.dir, "lines.idx.tmp") }
