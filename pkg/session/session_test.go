package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

type stubDriver struct {
	inputs       []string
	passwords    []string
	selectIdx    []int
	confirm      []bool
	inputConfigs []InputConfig
	infoMessages []string
	inputPos     int
	passPos      int
	selectPos    int
	confirmPos   int
	inputErr     error
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputErr != nil {
		return "", s.inputErr
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.inputConfigs = append(s.inputConfigs, cfg)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) exhausted() bool {
	return s.inputPos == len(s.inputs) && s.passPos == len(s.passwords) && s.selectPos == len(s.selectIdx) && s.confirmPos == len(s.confirm)
}

func newSignupForm(t *testing.T) *form.Form {
	t.Helper()
	def := form.Definition{
		ID: "signup",
		Fields: []form.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "age", Label: "Age", Type: form.FieldTypeInteger, Validations: []form.ValidationRule{
				{Kind: form.ValidationRuleMin, Params: map[string]string{"value": "18"}},
			}},
			{Name: "subscribe", Label: "Subscribe", Type: form.FieldTypeBoolean},
			{Name: "plan", Label: "Plan", Enum: []any{"free", "pro"}, Visible: "subscribe == true"},
			{Name: "admin_note", Enabled: `name == "root"`},
		},
	}
	f, err := form.New(def)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func TestRunSavesValidAnswers(t *testing.T) {
	f := newSignupForm(t)
	driver := &stubDriver{
		inputs:    []string{"Ada", "abc", "36"},
		confirm:   []bool{true},
		selectIdx: []int{1, int(actionSave)},
	}
	s, err := New(f, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := Result{
		Saved: true,
		Values: map[string]any{
			"name":       "Ada",
			"age":        36,
			"subscribe":  true,
			"plan":       "pro",
			"admin_note": nil,
		},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if !driver.exhausted() {
		t.Fatalf("script not fully consumed: %+v", driver)
	}
	if len(driver.infoMessages) != 1 || !strings.Contains(driver.infoMessages[0], "not a whole number") {
		t.Fatalf("expected one parse error notice, got %q", driver.infoMessages)
	}
	if f.IsModified() {
		t.Fatalf("saved form should be committed")
	}
}

func TestRunRefusesSaveWithErrors(t *testing.T) {
	f := newSignupForm(t)
	driver := &stubDriver{
		inputs:    []string{"", "16"},
		confirm:   []bool{false, true},
		selectIdx: []int{int(actionSave), int(actionQuit)},
	}
	s, err := New(f, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Saved {
		t.Fatalf("save should have been refused")
	}
	if !driver.exhausted() {
		t.Fatalf("quit on a modified form should ask for confirmation")
	}

	want := []string{
		DefaultTheme.ErrorPrefix + "Name is required",
		DefaultTheme.ErrorPrefix + "Age must be at least 18",
		"Fix the errors below before saving:",
		DefaultTheme.ErrorPrefix + "Name is required",
		DefaultTheme.ErrorPrefix + "Age must be at least 18",
	}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("info messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRevertRestoresLoadedValues(t *testing.T) {
	f := newSignupForm(t)
	if err := f.LoadValues(map[string]any{"name": "Ada", "age": 30}); err != nil {
		t.Fatalf("load values: %v", err)
	}
	driver := &stubDriver{
		inputs:    []string{"Bob", "31"},
		confirm:   []bool{false},
		selectIdx: []int{int(actionRevert), int(actionQuit)},
	}
	s, err := New(f, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Saved {
		t.Fatalf("quit should not save")
	}
	if !driver.exhausted() {
		t.Fatalf("script not fully consumed: %+v", driver)
	}
	if got := f.Values()["name"]; got != "Ada" {
		t.Fatalf("revert should restore the loaded name, got %v", got)
	}
	if f.IsModified() {
		t.Fatalf("reverted form should not be modified")
	}
	if driver.inputConfigs[0].Default != "Ada" || driver.inputConfigs[1].Default != "30" {
		t.Fatalf("prompts should default to current values: %+v", driver.inputConfigs)
	}
}

func TestRunEditAgain(t *testing.T) {
	f := newSignupForm(t)
	driver := &stubDriver{
		inputs:    []string{"Ada", "20", "Ada", "21"},
		confirm:   []bool{false, false},
		selectIdx: []int{int(actionEdit), int(actionSave)},
	}
	s, err := New(f, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Saved || result.Values["age"] != 21 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := result.Values["plan"]; ok {
		t.Fatalf("hidden plan should not be submitted")
	}
}

func TestRunPropagatesAbort(t *testing.T) {
	f := newSignupForm(t)
	driver := &stubDriver{inputErr: ErrAborted}
	s, err := New(f, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if _, err := s.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestSessionLogsCarryID(t *testing.T) {
	f := newSignupForm(t)
	var buf bytes.Buffer
	driver := &stubDriver{
		inputs:    []string{"Ada", "40"},
		confirm:   []bool{false},
		selectIdx: []int{int(actionSave)},
	}
	s, err := New(f, WithPromptDriver(driver), WithLogger(zerolog.New(&buf)))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(buf.String(), `"session":"`+s.ID().String()+`"`) {
		t.Fatalf("log lines should carry the session id: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"message":"form saved"`) {
		t.Fatalf("expected save log entry: %s", buf.String())
	}
}

func TestNewRequiresForm(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm, got %v", err)
	}
}

func TestRunUsesWidgetRegistry(t *testing.T) {
	def := form.Definition{
		ID: "login",
		Fields: []form.FieldSpec{
			{Name: "user", Required: true},
			{Name: "secret", Required: true, Metadata: map[string]string{"format": "password"}},
			{Name: "tier", Type: form.FieldTypeInteger, Enum: []any{1, 2}},
		},
	}
	f, err := form.New(def)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	reg := widgets.NewRegistry()
	reg.Register(widgets.WidgetPassword, 100, func(spec form.FieldSpec) bool {
		return spec.Name == "user"
	})
	driver := &stubDriver{
		passwords: []string{"ada", "hunter2"},
		selectIdx: []int{1, int(actionSave)},
	}
	s, err := New(f, WithPromptDriver(driver), WithWidgets(reg))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.exhausted() {
		t.Fatalf("script not fully consumed: %+v", driver)
	}
	want := map[string]any{"user": "ada", "secret": "hunter2", "tier": 2}
	if diff := cmp.Diff(want, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}
