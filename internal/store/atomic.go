package store

import (
	"os"

	"github.com/blz-dev/blz/internal/atomicfile"
)

// atomicWrite writes data to a live (reader-visible) path using a
// temp-file-then-rename swap.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	return atomicfile.WriteFile(path, data, perm)
}
