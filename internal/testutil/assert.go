package testutil

import "testing"

// AssertHasWarning fails the test unless one of the result's warnings
// carries the given kind code.
func (r *CLIResult) AssertHasWarning(t *testing.T, kind string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return
		}
	}
	t.Errorf("expected warning of kind %s, got warnings: %+v", kind, r.Warnings)
}

// AssertNoWarnings fails the test if the result carries any warnings.
func (r *CLIResult) AssertNoWarnings(t *testing.T) {
	t.Helper()
	if len(r.Warnings) > 0 {
		t.Errorf("expected no warnings, got: %+v", r.Warnings)
	}
}
