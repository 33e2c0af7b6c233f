package mdparse

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrInvalidUTF8 is returned when the input is not valid UTF-8.
//
// Callers are expected to validate/normalize input before calling Parse;
// this is a defensive guard, not the primary validation point.
var ErrInvalidUTF8 = errors.New("mdparse: input is not valid UTF-8")

// Heading is a single heading occurrence in the document.
type Heading struct {
	Level     int // 1..6, or 0 for the synthetic prelude root
	Title     string
	ByteStart int
	LineStart int
}

// HeadingBlock is a contiguous, non-overlapping line range owned by a
// heading (or the synthetic root for content before the first heading).
type HeadingBlock struct {
	Level     int
	Title     string
	Path      []string // ancestor titles, ending with Title itself
	LineStart int
	LineEnd   int
	ByteStart int
	ByteEnd   int
}

// TOCEntry is one flattened row of the table of contents.
type TOCEntry struct {
	Level     int
	Title     string
	LineStart int
}

// Outline is the full parse result for one document.
type Outline struct {
	Blocks    []HeadingBlock
	TOC       []TOCEntry
	LineCount int
}

// headingPattern matches a markdown ATX heading: 1-6 '#' characters, a
// space, then at least one non-whitespace character.
var headingPattern = regexp.MustCompile(`^(#{1,6}) (\S.*)$`)

var trailingHashes = regexp.MustCompile(`\s+#+\s*$`)

// Parse deterministically segments text into an Outline. text must already
// be UTF-8 with LF line endings; Parse does not normalize.
//
// An empty document yields an empty Outline with no error: this mirrors
// spec's ParseError::Empty, which names "empty" as a documented case rather
// than a true failure.
func Parse(text string) (*Outline, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	if text == "" {
		return &Outline{}, nil
	}

	offsets := lineOffsets(text)
	total := lineCount(text)

	fenced, err := fencedLineRanges(text)
	if err != nil {
		return nil, err
	}

	headings := scanHeadings(text, offsets, total, fenced)

	blocks := buildBlocks(headings, total, offsets, text)
	toc := buildTOC(headings)

	return &Outline{Blocks: blocks, TOC: toc, LineCount: total}, nil
}

// scanHeadings walks the document line by line looking for ATX headings,
// skipping any line inside a fenced code block.
func scanHeadings(text string, offsets []int, total int, fenced []lineRange) []Heading {
	var headings []Heading
	line := 1
	pos := 0
	for pos <= len(text) {
		nl := strings.IndexByte(text[pos:], '\n')
		var lineText string
		if nl < 0 {
			lineText = text[pos:]
		} else {
			lineText = text[pos : pos+nl]
		}

		if !inAnyRange(fenced, line) {
			if m := headingPattern.FindStringSubmatch(lineText); m != nil {
				level := len(m[1])
				title := strings.TrimRight(m[2], " \t")
				title = trailingHashes.ReplaceAllString(title, "")
				title = strings.TrimRight(title, " \t")
				headings = append(headings, Heading{
					Level:     level,
					Title:     title,
					ByteStart: byteStartOfLine(offsets, line),
					LineStart: line,
				})
			}
		}

		if nl < 0 {
			break
		}
		pos = pos + nl + 1
		line++
		if line > total {
			break
		}
	}
	return headings
}

type lineRange struct{ start, end int } // inclusive, 1-indexed

func inAnyRange(ranges []lineRange, line int) bool {
	for _, r := range ranges {
		if line >= r.start && line <= r.end {
			return true
		}
	}
	return false
}

// fencedLineRanges uses goldmark's block parser to find the line ranges
// covered by fenced (and indented) code blocks, so heading detection can
// skip them. Unterminated fences are handled permissively by goldmark
// itself (they extend to EOF).
func fencedLineRanges(content string) ([]lineRange, error) {
	src := []byte(content)
	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	offsets := lineOffsets(content)

	var ranges []lineRange
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			first := lines.At(0)
			last := lines.At(lines.Len() - 1)
			startLine := offsetToLine(offsets, first.Start) + 1
			endLine := offsetToLine(offsets, last.Stop-1) + 1
			ranges = append(ranges, lineRange{start: startLine, end: endLine})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return ranges, nil
}

// offsetToLine converts a byte offset to a 0-indexed line number using the
// same offsets table produced by lineOffsets.
func offsetToLine(offsets []int, offset int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// buildBlocks pairs adjacent headings into HeadingBlocks and attaches the
// synthetic prelude root when content precedes the first heading.
func buildBlocks(headings []Heading, total int, offsets []int, text string) []HeadingBlock {
	var blocks []HeadingBlock

	firstHeadingLine := total + 1
	if len(headings) > 0 {
		firstHeadingLine = headings[0].LineStart
	}
	if total > 0 && firstHeadingLine > 1 {
		blocks = append(blocks, HeadingBlock{
			Level:     0,
			Title:     "",
			Path:      nil,
			LineStart: 1,
			LineEnd:   firstHeadingLine - 1,
			ByteStart: 0,
			ByteEnd:   byteEndOfLine(offsets, firstHeadingLine-1, len(text)),
		})
	}

	type ancestor struct {
		title string
		level int
	}
	var stack []ancestor

	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}

		path := make([]string, 0, len(stack)+1)
		for _, a := range stack {
			path = append(path, a.title)
		}
		path = append(path, h.Title)

		endLine := total
		if i+1 < len(headings) {
			endLine = headings[i+1].LineStart - 1
		}

		blocks = append(blocks, HeadingBlock{
			Level:     h.Level,
			Title:     h.Title,
			Path:      path,
			LineStart: h.LineStart,
			LineEnd:   endLine,
			ByteStart: h.ByteStart,
			ByteEnd:   byteEndOfLine(offsets, endLine, len(text)),
		})

		stack = append(stack, ancestor{title: h.Title, level: h.Level})
	}

	return blocks
}

func buildTOC(headings []Heading) []TOCEntry {
	if len(headings) == 0 {
		return nil
	}
	toc := make([]TOCEntry, len(headings))
	for i, h := range headings {
		toc[i] = TOCEntry{Level: h.Level, Title: h.Title, LineStart: h.LineStart}
	}
	return toc
}
