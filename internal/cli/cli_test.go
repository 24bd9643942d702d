package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/session"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type scriptedDriver struct {
	inputs  []string
	confirm []bool
	selects []int
}

func (d *scriptedDriver) Input(context.Context, session.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := d.inputs[0]
	d.inputs = d.inputs[1:]
	return val, nil
}

func (d *scriptedDriver) Password(ctx context.Context, cfg session.InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Confirm(context.Context, session.ConfirmConfig) (bool, error) {
	if len(d.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := d.confirm[0]
	d.confirm = d.confirm[1:]
	return val, nil
}

func (d *scriptedDriver) Select(context.Context, session.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := d.selects[0]
	d.selects = d.selects[1:]
	return val, nil
}

func (d *scriptedDriver) Info(context.Context, string) error {
	return nil
}

func runCmd(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FORMSTATE_LOG_LEVEL", "off")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(testsupport.Context())
	return stdout.String(), stderr.String(), err
}

func TestCheckPassesWithValidValues(t *testing.T) {
	out, _, err := runCmd(t, &App{}, "check", filepath.Join("testdata", "signup.yaml"),
		"--values", filepath.Join("testdata", "values.json"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out != "ok: 5 fields\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheckReportsFieldAndFormErrors(t *testing.T) {
	out, _, err := runCmd(t, &App{}, "check", filepath.Join("testdata", "signup.yaml"),
		"--values", filepath.Join("testdata", "values.json"),
		"--errors", filepath.Join("testdata", "errors.yaml"))
	if err == nil {
		t.Fatalf("expected check to fail")
	}
	golden := filepath.Join("testdata", "check_errors.golden")
	if testsupport.WriteMaybeGolden(t, golden, []byte(out)) {
		return
	}
	if diff := testsupport.CompareGolden(testsupport.MustReadGoldenString(t, golden), out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckWithoutValuesReportsRequired(t *testing.T) {
	out, _, err := runCmd(t, &App{}, "check", filepath.Join("testdata", "signup.yaml"))
	if err == nil {
		t.Fatalf("expected check to fail")
	}
	if !strings.Contains(out, "email [error] Email is required") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestImportWritesDefinition(t *testing.T) {
	target := filepath.Join(t.TempDir(), "signup.yaml")
	_, _, err := runCmd(t, &App{}, "import", filepath.Join("testdata", "signup.openapi.yaml"),
		"--operation", "createSignup", "--output", target)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	def := testsupport.MustLoadDefinition(t, target)
	var names []string
	for _, spec := range def.Fields {
		names = append(names, spec.Name)
	}
	want := []string{"address.city", "address.country", "age", "email", "newsletter", "topics"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRequiresOperation(t *testing.T) {
	if _, _, err := runCmd(t, &App{}, "import", filepath.Join("testdata", "signup.openapi.yaml")); err == nil {
		t.Fatalf("expected missing --operation to fail")
	}
}

func TestEditWritesSavedValues(t *testing.T) {
	driver := &scriptedDriver{
		inputs:  []string{"grace@example.com", "40", "go"},
		confirm: []bool{true},
		selects: []int{1, 0},
	}
	out, _, err := runCmd(t, &App{driver: driver}, "edit", filepath.Join("testdata", "signup.yaml"),
		"--values", filepath.Join("testdata", "values.json"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, err := form.DecodeValues(strings.NewReader(out), form.FormatJSON)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := map[string]any{
		"email":      "grace@example.com",
		"age":        float64(40),
		"newsletter": true,
		"topics":     []any{"go"},
		"country":    "SE",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("saved values mismatch (-want +got):\n%s", diff)
	}
}

func TestEditAbortIsNotAnError(t *testing.T) {
	_, stderr, err := runCmd(t, &App{driver: &abortingDriver{}}, "edit", filepath.Join("testdata", "signup.yaml"))
	if err != nil {
		t.Fatalf("abort should exit cleanly, got %v", err)
	}
	if !strings.Contains(stderr, "Aborted.") {
		t.Fatalf("expected abort notice, got %q", stderr)
	}
}

type abortingDriver struct {
	scriptedDriver
}

func (abortingDriver) Input(context.Context, session.InputConfig) (string, error) {
	return "", session.ErrAborted
}
