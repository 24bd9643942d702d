package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
)

// MustLoadDefinition loads a definition fixture, failing the test on error.
func MustLoadDefinition(t *testing.T, path string) form.Definition {
	t.Helper()

	def, err := form.LoadDefinition(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// MustNewForm loads a definition fixture and builds a form from it.
func MustNewForm(t *testing.T, path string, options ...form.Option) *form.Form {
	t.Helper()

	f, err := form.New(MustLoadDefinition(t, path), options...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

// MustLoadValues loads a values fixture keyed by field name.
func MustLoadValues(t *testing.T, path string) map[string]any {
	t.Helper()

	values, err := form.LoadValues(path)
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	return values
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
