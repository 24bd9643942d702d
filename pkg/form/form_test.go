package form

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/message"
	"github.com/goliatone/go-formstate/pkg/viewmodel"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

func loadSignup(t *testing.T, options ...Option) *Form {
	t.Helper()
	def, err := LoadDefinition(filepath.Join("testdata", "signup.yaml"))
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	f, err := New(def, options...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func TestNewRunsInitialRefresh(t *testing.T) {
	f := loadSignup(t)

	if f.IsModified() {
		t.Fatalf("fresh form should not be modified")
	}
	if !f.HasErrors() {
		t.Fatalf("expected required email to be reported")
	}
	want := map[string][]message.Message{
		"email": {{Severity: message.SeverityError, Text: "Email is required"}},
	}
	if diff := cmp.Diff(want, f.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	topics, _ := f.Field("topics")
	if topics.Visible() {
		t.Fatalf("topics should be hidden while newsletter is off")
	}
	if _, ok := f.VisibleValues()["topics"]; ok {
		t.Fatalf("hidden field leaked into visible values")
	}
}

func TestSetMarksModifiedAndRevalidates(t *testing.T) {
	f := loadSignup(t)

	var transitions []bool
	f.OnModifiedChanged(func(modified bool) { transitions = append(transitions, modified) })

	if err := f.Set("email", "ada@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if !f.IsModified() || !f.AreFieldsChangedFromOriginal() {
		t.Fatalf("edit should mark the form modified and changed")
	}
	if f.HasErrors() {
		t.Fatalf("unexpected errors after valid email: %v", f.Messages())
	}

	if err := f.Set("age", 16); err != nil {
		t.Fatalf("set age: %v", err)
	}
	want := map[string][]message.Message{
		"age": {{Severity: message.SeverityError, Text: "Age must be at least 18"}},
	}
	if diff := cmp.Diff(want, f.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true}, transitions); diff != "" {
		t.Fatalf("modified should fire once (-want +got):\n%s", diff)
	}

	if err := f.Set("nickname", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSetInputParsesByType(t *testing.T) {
	f := loadSignup(t)

	if err := f.SetInput("age", "abc"); err == nil {
		t.Fatalf("expected parse error for non-numeric age")
	}
	if got := f.Values()["age"]; got != nil {
		t.Fatalf("failed parse must not change the value, got %v", got)
	}

	if err := f.SetInput("newsletter", "yes"); err != nil {
		t.Fatalf("set newsletter: %v", err)
	}
	topics, _ := f.Field("topics")
	if !topics.Visible() {
		t.Fatalf("topics should be visible once newsletter is on")
	}

	if err := f.SetInput("topics", "go, forms, tui, cli"); err != nil {
		t.Fatalf("set topics: %v", err)
	}
	got := topics.Messages().Texts(message.SeverityError)
	if diff := cmp.Diff([]string{"Topics must have at most 3 items"}, got); diff != "" {
		t.Fatalf("topics messages mismatch (-want +got):\n%s", diff)
	}

	if err := f.SetInput("newsletter", "no"); err != nil {
		t.Fatalf("clear newsletter: %v", err)
	}
	if topics.Visible() || topics.Messages().Len() != 0 {
		t.Fatalf("hidden topics should be skipped by validation")
	}
}

func TestLoadValuesResetsBaseline(t *testing.T) {
	f := loadSignup(t)
	if err := f.Set("email", "draft@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}

	values, err := LoadValues(filepath.Join("testdata", "values.yaml"))
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	if err := f.LoadValues(values); err != nil {
		t.Fatalf("apply values: %v", err)
	}

	want := map[string]any{
		"email":      "ada@example.com",
		"age":        36,
		"newsletter": true,
		"topics":     []any{"go", "forms"},
		"country":    "NO",
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if f.IsModified() || f.AreFieldsChangedFromOriginal() {
		t.Fatalf("loaded values should become the unmodified baseline")
	}
	if f.HasErrors() {
		t.Fatalf("unexpected errors: %v", f.Messages())
	}

	if err := f.Set("age", 40); err != nil {
		t.Fatalf("set age: %v", err)
	}
	f.RestoreOriginalValues()
	if got := f.Values()["age"]; got != 36 {
		t.Fatalf("restore should bring back the loaded age, got %v", got)
	}
	if f.AreFieldsChangedFromOriginal() {
		t.Fatalf("restored form should match its originals")
	}

	if err := f.LoadValues(map[string]any{"nickname": "ada"}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestLoadValuesRefusedDuringCycle(t *testing.T) {
	def := Definition{
		ID: "inline",
		Fields: []FieldSpec{
			{Name: "a", Default: "seed", Visible: "reload"},
		},
	}
	var (
		f       *Form
		armed   bool
		loadErr error
	)
	evaluator := visibility.EvaluatorFunc(func(_, _ string, _ visibility.Context) (bool, error) {
		if armed {
			armed = false
			loadErr = f.LoadValues(map[string]any{"a": "server"})
		}
		return true, nil
	})
	f, err := New(def, WithEvaluator(evaluator))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	armed = true
	if err := f.Set("a", "edit"); err != nil {
		t.Fatalf("set a: %v", err)
	}

	if !errors.Is(loadErr, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress, got %v", loadErr)
	}
	value, _ := f.Field("a")
	if value.Get() != "edit" || value.Original() != "seed" {
		t.Fatalf("refused load must not touch the field: current=%v original=%v", value.Get(), value.Original())
	}
	if !f.IsModified() {
		t.Fatalf("form should stay modified after a refused load")
	}
}

func TestCommitAdoptsCurrentValues(t *testing.T) {
	f := loadSignup(t)
	if err := f.Set("email", "ada@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}

	f.Commit()

	if f.IsModified() || f.AreFieldsChangedFromOriginal() {
		t.Fatalf("commit should clear the modified state")
	}
	email, _ := f.Field("email")
	if email.Original() != "ada@example.com" {
		t.Fatalf("commit should update originals, got %v", email.Original())
	}
}

func TestBrokenRuleFailsOpenAndReports(t *testing.T) {
	def := Definition{
		ID: "broken",
		Fields: []FieldSpec{
			{Name: "a", Type: FieldTypeInteger},
			{Name: "b", Visible: "a =="},
		},
	}

	var reported []*viewmodel.HookError
	f, err := New(def, WithHookErrorHandler(func(err *viewmodel.HookError) {
		reported = append(reported, err)
	}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	if len(reported) != 1 {
		t.Fatalf("expected one hook error from the initial refresh, got %d", len(reported))
	}
	if reported[0].Cycle != viewmodel.StateRefreshing || reported[0].Err == nil {
		t.Fatalf("unexpected hook error: %+v", reported[0])
	}
	b, _ := f.Field("b")
	if !b.Visible() {
		t.Fatalf("broken rule should keep the field visible")
	}
	if f.IsUpdatingView() {
		t.Fatalf("guard leaked after failed refresh")
	}
}

func TestExtrasReachRules(t *testing.T) {
	def := Definition{
		Fields: []FieldSpec{
			{Name: "beta_code", Visible: "extras.beta"},
		},
	}

	f, err := New(def, WithExtras(map[string]any{"beta": false}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	field, _ := f.Field("beta_code")
	if field.Visible() {
		t.Fatalf("field should follow extras.beta")
	}
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	if _, err := New(Definition{}); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	cases := []Definition{
		{Fields: []FieldSpec{{Name: " "}}},
		{Fields: []FieldSpec{{Name: "a"}, {Name: "a"}}},
		{Fields: []FieldSpec{{Name: "a", Type: "date"}}},
		{Fields: []FieldSpec{{Name: "a", Validations: []ValidationRule{{Kind: "min"}}}}},
		{Fields: []FieldSpec{{Name: "a", Validations: []ValidationRule{{Kind: "email"}}}}},
	}
	for i, def := range cases {
		if _, err := New(def); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
