// Package mdparse turns a flat, LF-normalized markdown document into a
// line-accurate heading outline: a tree of headings plus the contiguous,
// non-overlapping line ranges ("blocks") they own.
package mdparse

// lineOffsets returns the byte offset of the first character of each line,
// one entry per line (1-indexed lines, 0-indexed slice), plus a trailing
// sentinel equal to len(text) for EOF.
func lineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	// Sentinel: if the file doesn't end with '\n', the implicit last line
	// still needs a closing offset.
	if len(text) == 0 || text[len(text)-1] != '\n' {
		offsets = append(offsets, len(text))
	}
	return offsets
}

// lineCount returns the number of logical lines in text, using the same
// convention as lineOffsets: a trailing newline does not create an extra
// empty line.
func lineCount(text string) int {
	if text == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i != len(text)-1 {
			n++
		}
	}
	return n
}

// byteStartOfLine returns the byte offset of the first character of the
// given 1-indexed line.
func byteStartOfLine(offsets []int, line int) int {
	if line < 1 {
		line = 1
	}
	idx := line - 1
	if idx >= len(offsets) {
		idx = len(offsets) - 1
	}
	return offsets[idx]
}

// byteEndOfLine returns the byte offset just past the last character of the
// given 1-indexed line (exclusive), including its trailing newline if any.
func byteEndOfLine(offsets []int, line int, textLen int) int {
	idx := line
	if idx >= len(offsets) {
		return textLen
	}
	return offsets[idx]
}
