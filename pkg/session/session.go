package session

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/message"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

// Result is the outcome of a session.
type Result struct {
	Saved  bool
	Values map[string]any
}

type action int

const (
	actionSave action = iota
	actionRevert
	actionEdit
	actionQuit
)

var actionLabels = []string{"Save", "Revert changes", "Edit again", "Quit"}

// Session walks a user through a form in the terminal.
type Session struct {
	id      uuid.UUID
	form    *form.Form
	driver  PromptDriver
	widgets *widgets.Registry
	logger  zerolog.Logger
	theme   Theme
}

// New prepares a session for f. The survey driver writing to stdout is used
// unless WithPromptDriver says otherwise.
func New(f *form.Form, options ...Option) (*Session, error) {
	if f == nil {
		return nil, ErrNoForm
	}
	s := &Session{
		id:      uuid.New(),
		form:    f,
		driver:  NewSurveyDriver(os.Stdout),
		widgets: widgets.NewRegistry(),
		logger:  zerolog.Nop(),
		theme:   DefaultTheme,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.logger = s.logger.With().
		Str("component", "session").
		Str("session", s.id.String()).
		Str("form", f.Definition().ID).
		Logger()
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Run prompts every visible and enabled field, then loops on the action menu
// until the user saves or quits. Saving is refused while any field carries an
// error and quitting a modified form asks first.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.logger.Debug().Msg("session started")

	edit := true
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if edit {
			if err := s.editFields(ctx); err != nil {
				return Result{}, s.fail(err)
			}
			edit = false
		}

		choice, err := s.driver.Select(ctx, SelectConfig{
			Message:      "What next?",
			Options:      actionLabels,
			DefaultIndex: int(actionSave),
		})
		if err != nil {
			return Result{}, s.fail(err)
		}

		switch action(choice) {
		case actionSave:
			if s.form.HasErrors() {
				if err := s.reportErrors(ctx); err != nil {
					return Result{}, s.fail(err)
				}
				continue
			}
			values := s.form.VisibleValues()
			s.form.Commit()
			s.logger.Info().Int("fields", len(values)).Msg("form saved")
			return Result{Saved: true, Values: values}, nil

		case actionRevert:
			s.form.RestoreOriginalValues()
			if !s.form.AreFieldsChangedFromOriginal() {
				s.form.SetModified(false)
			}
			s.logger.Debug().Msg("changes reverted")
			if err := s.driver.Info(ctx, "Changes reverted."); err != nil {
				return Result{}, s.fail(err)
			}

		case actionEdit:
			edit = true

		case actionQuit:
			if s.form.IsModified() {
				discard, err := s.driver.Confirm(ctx, ConfirmConfig{
					Message: "Discard unsaved changes?",
				})
				if err != nil {
					return Result{}, s.fail(err)
				}
				if !discard {
					continue
				}
			}
			s.logger.Info().Bool("modified", s.form.IsModified()).Msg("session closed without saving")
			return Result{Saved: false, Values: s.form.VisibleValues()}, nil

		default:
			return Result{}, s.fail(fmt.Errorf("session: unknown action %d", choice))
		}
	}
}

func (s *Session) fail(err error) error {
	s.logger.Debug().Err(err).Msg("session ended")
	return err
}

// editFields re-checks visibility before every prompt since earlier answers
// can show or hide later fields.
func (s *Session) editFields(ctx context.Context) error {
	for _, spec := range s.form.Specs() {
		value, ok := s.form.Field(spec.Name)
		if !ok || !value.Visible() || !value.Enabled() {
			continue
		}
		if err := s.promptField(ctx, spec, value); err != nil {
			return err
		}
		if err := s.showMessages(ctx, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, spec form.FieldSpec, value *field.Value) error {
	label := spec.DisplayLabel()
	if spec.Required {
		label += " *"
	}

	switch s.widgets.Resolve(spec) {
	case widgets.WidgetSelect:
		if len(spec.Enum) == 0 {
			break
		}
		options := make([]string, len(spec.Enum))
		current := form.FormatValue(value.Get())
		defaultIndex := -1
		for i, option := range spec.Enum {
			options[i] = form.FormatValue(option)
			if options[i] == current {
				defaultIndex = i
			}
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: defaultIndex,
			Help:         spec.Help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(spec.Enum) {
			return fmt.Errorf("session: %s: selection %d out of range", spec.Name, idx)
		}
		return s.set(spec.Name, spec.Enum[idx])

	case widgets.WidgetConfirm:
		current, _ := value.Get().(bool)
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Default: current,
			Help:    spec.Help,
		})
		if err != nil {
			return err
		}
		return s.set(spec.Name, answer)

	case widgets.WidgetPassword:
		return s.promptText(ctx, spec, InputConfig{Message: label, Help: spec.Help}, s.driver.Password)

	case widgets.WidgetList:
		help := spec.Help
		if help == "" {
			help = "Separate items with commas."
		}
		return s.promptText(ctx, spec, InputConfig{
			Message: label,
			Default: form.FormatValue(value.Get()),
			Help:    help,
		}, s.driver.Input)
	}

	return s.promptText(ctx, spec, InputConfig{
		Message: label,
		Default: form.FormatValue(value.Get()),
		Help:    spec.Help,
	}, s.driver.Input)
}

// promptText asks until the answer parses for the field type.
func (s *Session) promptText(ctx context.Context, spec form.FieldSpec, cfg InputConfig, ask func(context.Context, InputConfig) (string, error)) error {
	cfg.Validator = func(raw string) error {
		_, err := form.ParseInput(spec, raw)
		return err
	}
	for {
		raw, err := ask(ctx, cfg)
		if err != nil {
			return err
		}
		if err := s.form.SetInput(spec.Name, raw); err != nil {
			if infoErr := s.driver.Info(ctx, s.theme.ErrorPrefix+err.Error()); infoErr != nil {
				return infoErr
			}
			continue
		}
		s.logger.Debug().Str("field", spec.Name).Msg("field updated")
		return nil
	}
}

func (s *Session) set(name string, value any) error {
	if err := s.form.Set(name, value); err != nil {
		return err
	}
	s.logger.Debug().Str("field", name).Msg("field updated")
	return nil
}

func (s *Session) showMessages(ctx context.Context, value *field.Value) error {
	for _, msg := range value.Messages().Messages() {
		prefix := s.theme.InfoPrefix
		if msg.Severity >= message.SeverityError {
			prefix = s.theme.ErrorPrefix
		}
		if err := s.driver.Info(ctx, prefix+msg.Text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) reportErrors(ctx context.Context) error {
	s.logger.Debug().Msg("save refused, form has errors")
	if err := s.driver.Info(ctx, "Fix the errors below before saving:"); err != nil {
		return err
	}
	for _, spec := range s.form.Specs() {
		value, ok := s.form.Field(spec.Name)
		if !ok {
			continue
		}
		for _, text := range value.Messages().Texts(message.SeverityError) {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+text); err != nil {
				return err
			}
		}
	}
	return nil
}
