package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blz-dev/blz/internal/fetcher"
	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/query"
	"github.com/blz-dev/blz/internal/retrieve"
)

// Error codes for structured error responses. Stable across releases so
// agents can branch on them.
const (
	ErrInvalidAlias   = "INVALID_ALIAS"
	ErrInvalidInput   = "INVALID_INPUT"
	ErrSourceExists   = "SOURCE_EXISTS"
	ErrSourceNotFound = "SOURCE_NOT_FOUND"
	ErrFetchFailed    = "FETCH_FAILED"
	ErrParseFailed    = "PARSE_FAILED"
	ErrStorageError   = "STORAGE_ERROR"
	ErrIndexError     = "INDEX_ERROR"
	ErrQueryInvalid   = "QUERY_INVALID"
	ErrOutOfRange     = "OUT_OF_RANGE"
	ErrInternal       = "INTERNAL_ERROR"
)

// Warning codes for non-fatal, per-source issues.
const (
	WarnSourceDegraded = "SOURCE_DEGRADED"
	WarnSourceError    = "SOURCE_ERROR"
)

// ExitError pins the process exit code a failure should produce, per the
// environment contract: 0 success, 1 recoverable failure, 2 usage error,
// 124 deadline, 129 abandoned parent.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps a cobra/Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 124
	}
	if errors.Is(err, context.Canceled) {
		return 129
	}
	return 1
}

// classify wraps err with the exit code implied by its structured kind,
// per the error taxonomy: input/usage errors exit 2, everything else
// recoverable exits 1 unless it's a deadline or cancellation.
func classify(code string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExitError{Code: 124, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: 129, Err: err}
	}
	switch code {
	case ErrInvalidAlias, ErrInvalidInput, ErrQueryInvalid:
		return &ExitError{Code: 2, Err: err}
	default:
		return &ExitError{Code: 1, Err: err}
	}
}

// errorCode classifies a Go error from the core packages into one of the
// stable CLI codes above, per the taxonomy in the error handling design.
func errorCode(err error) string {
	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		return ErrQueryInvalid
	}
	var fetchErr *fetcher.Error
	if errors.As(err, &fetchErr) {
		return ErrFetchFailed
	}
	var notFound *retrieve.NotFoundError
	if errors.As(err, &notFound) {
		return ErrSourceNotFound
	}
	var outOfRange *retrieve.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return ErrOutOfRange
	}
	if errors.Is(err, index.ErrVersionMismatch) {
		return ErrIndexError
	}
	if errors.Is(err, os.ErrNotExist) {
		return ErrSourceNotFound
	}
	return ErrInternal
}

func aliasOf(err error) string {
	var notFound *retrieve.NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Alias
	}
	var outOfRange *retrieve.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return outOfRange.Alias
	}
	return ""
}

func fmtUsage(format string, args ...interface{}) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}
