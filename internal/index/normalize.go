package index

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// headingFold normalizes a heading-path query term to Unicode NFC and
// folds its case, so "#Über" and "#über" (or combining-mark variants of
// the same glyph) hit the same FTS5 row regardless of how the document's
// heading was originally written. Applied to the query side only; the
// FTS5 unicode61 tokenizer already folds stored heading_path/heading_title
// values per the mdparse.Parse "Unicode scalar values" contract.
var foldCaser = cases.Fold(cases.Compact)

func headingFold(s string) string {
	return foldCaser.String(norm.NFC.String(s))
}
