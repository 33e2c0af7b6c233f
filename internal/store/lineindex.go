package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// lineIndexMagic tags the sidecar format so a stale or corrupt file is
// detected instead of silently misread.
const lineIndexMagic = "blzl1\x00"

// LineIndex is a byte-offset table for one document's lines, letting a
// ranged retrieval seek directly to the requested range instead of
// scanning from the start of a potentially multi-million-line file.
type LineIndex struct {
	offsets []int64
}

// BuildLineIndex scans text and records the byte offset of the start of
// every line; the final entry is always len(text), added as a sentinel
// when text does not end in a newline. offsets[i] is the start of line
// i+1 (1-indexed lines).
func BuildLineIndex(text []byte) *LineIndex {
	offsets := []int64{0}
	for i, b := range text {
		if b == '\n' {
			offsets = append(offsets, int64(i+1))
		}
	}
	if len(text) == 0 || text[len(text)-1] != '\n' {
		offsets = append(offsets, int64(len(text)))
	}
	return &LineIndex{offsets: offsets}
}

// LineCount returns the number of lines represented.
func (li *LineIndex) LineCount() int {
	if len(li.offsets) < 2 {
		return 0
	}
	return len(li.offsets) - 1
}

// ByteRange returns the half-open [start, end) byte range covering lines
// [from, to] inclusive, 1-indexed and clamped to the document's bounds.
func (li *LineIndex) ByteRange(from, to int) (int64, int64, error) {
	n := li.LineCount()
	if n == 0 {
		return 0, 0, fmt.Errorf("store: line index is empty")
	}
	if from < 1 {
		from = 1
	}
	if to > n {
		to = n
	}
	if from > to {
		return 0, 0, fmt.Errorf("store: empty line range %d-%d", from, to)
	}
	return li.offsets[from-1], li.offsets[to], nil
}

func encodeLineIndex(offsets []int64) ([]byte, error) {
	buf := make([]byte, 0, len(lineIndexMagic)+8+len(offsets)*8)
	buf = append(buf, []byte(lineIndexMagic)...)
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(offsets)))
	buf = append(buf, countBuf[:]...)
	for _, off := range offsets {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(off))
		buf = append(buf, b[:]...)
	}
	return buf, nil
}

// ReadLineIndex loads a line index sidecar previously written by
// Staging.WriteLineIndex.
func ReadLineIndex(path string) (*LineIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(lineIndexMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("store: read line index header: %w", err)
	}
	if string(magic) != lineIndexMagic {
		return nil, fmt.Errorf("store: line index %s has an unrecognized header", path)
	}

	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("store: read line index count: %w", err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	offsets := make([]int64, 0, count)
	buf := make([]byte, 8)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("store: read line index entry %d: %w", i, err)
		}
		offsets = append(offsets, int64(binary.LittleEndian.Uint64(buf)))
	}
	return &LineIndex{offsets: offsets}, nil
}

// LineIndexOffsets exposes the raw offset table, e.g. for WriteLineIndex
// round-tripping in tests.
func (li *LineIndex) LineIndexOffsets() []int64 {
	return li.offsets
}
