package cli

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"
)

var captureStdoutMu sync.Mutex

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it. Serialized with a mutex since os.Stdout is
// process-global and Go tests within a package run in the same process.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, r)
		_ = r.Close()
		if copyErr != nil {
			errCh <- copyErr
			return
		}
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	select {
	case err := <-errCh:
		t.Fatalf("io.Copy: %v", err)
		return ""
	case output := <-outputCh:
		return output
	}
}
