package query

import "fmt"

// ParseError reports a malformed query string. Query errors are
// non-fatal to the index; callers surface this and skip execution
// rather than failing the whole request.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: parse error at %d: %s (in %q)", e.Pos, e.Msg, e.Input)
}
