package form

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/message"
	"github.com/goliatone/go-formstate/pkg/viewmodel"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// Form is a view-model built from a Definition. Its refresh hook applies
// visibility and enabled rules and re-validates every visible field, so any
// edit re-synchronises the whole form.
type Form struct {
	*viewmodel.Base

	def       Definition
	entries   []entry
	byName    map[string]int
	evaluator visibility.Evaluator
	extras    map[string]any
	checker   *checker
}

type entry struct {
	spec  FieldSpec
	value *field.Value
}

type config struct {
	logger      zerolog.Logger
	evaluator   visibility.Evaluator
	extras      map[string]any
	onHookError func(*viewmodel.HookError)
}

// Option configures a Form.
type Option func(*config)

// WithLogger routes refresh diagnostics to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithEvaluator overrides the rule evaluator used for visible/enabled rules.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(cfg *config) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// WithExtras exposes additional context to rules under the `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(cfg *config) {
		cfg.extras = extras
	}
}

// WithHookErrorHandler observes refresh failures such as broken rules.
func WithHookErrorHandler(fn func(*viewmodel.HookError)) Option {
	return func(cfg *config) {
		cfg.onHookError = fn
	}
}

// New builds a Form from def and runs an initial refresh.
func New(def Definition, options ...Option) (*Form, error) {
	def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}

	cfg := config{
		logger:    zerolog.Nop(),
		evaluator: expr.New(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	f := &Form{
		def:       def,
		byName:    make(map[string]int, len(def.Fields)),
		evaluator: cfg.evaluator,
		extras:    cfg.extras,
		checker:   newChecker(),
	}
	f.Base = viewmodel.New(
		viewmodel.WithLogger(cfg.logger.With().Str("form", def.ID).Logger()),
		viewmodel.WithUpdater(f),
		viewmodel.WithHookErrorHandler(cfg.onHookError),
	)

	for _, spec := range def.Fields {
		value := field.NewValue(spec.ID, spec.Name,
			field.WithLabel(spec.Label),
			field.WithInitial(spec.Default),
			field.WithRequired(spec.Required),
		)
		f.byName[spec.Name] = len(f.entries)
		f.entries = append(f.entries, entry{spec: spec, value: value})
		f.AddField(value)
	}

	f.RefreshView()
	return f, nil
}

// Definition returns the normalised definition the form was built from.
func (f *Form) Definition() Definition {
	return f.def
}

// Field returns the field named name.
func (f *Form) Field(name string) (*field.Value, bool) {
	idx, ok := f.byName[name]
	if !ok {
		return nil, false
	}
	return f.entries[idx].value, true
}

// FieldByID returns the fields declared with id. Ids may be shared.
func (f *Form) FieldByID(id int) []*field.Value {
	var out []*field.Value
	for _, e := range f.entries {
		if e.spec.ID == id {
			out = append(out, e.value)
		}
	}
	return out
}

// Spec returns the declaration of the field named name.
func (f *Form) Spec(name string) (FieldSpec, bool) {
	idx, ok := f.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return f.entries[idx].spec, true
}

// Specs returns the field declarations in form order.
func (f *Form) Specs() []FieldSpec {
	out := make([]FieldSpec, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.spec)
	}
	return out
}

// Set is the programmatic edit path. A change outside a refresh cycle marks
// the form modified and refreshes it.
func (f *Form) Set(name string, value any) error {
	v, ok := f.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v.SetValue(value)
	return nil
}

// SetInput parses raw according to the field type and sets it.
func (f *Form) SetInput(name, raw string) error {
	spec, ok := f.Spec(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	value, err := ParseInput(spec, raw)
	if err != nil {
		return err
	}
	return f.Set(name, value)
}

// Values returns every field value keyed by name.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.entries))
	for _, e := range f.entries {
		out[e.spec.Name] = e.value.Get()
	}
	return out
}

// VisibleValues returns the values of visible fields only, which is what a
// submission should carry.
func (f *Form) VisibleValues() map[string]any {
	out := make(map[string]any, len(f.entries))
	for _, e := range f.entries {
		if e.value.Visible() {
			out[e.spec.Name] = e.value.Get()
		}
	}
	return out
}

// LoadValues installs a record as the new original snapshot and restores
// every field to it. Fields missing from values fall back to their default.
// The form is unmodified afterwards. It fails without touching any field when
// called while a cycle is running.
func (f *Form) LoadValues(values map[string]any) error {
	if f.IsUpdatingView() {
		return ErrCycleInProgress
	}
	for name := range values {
		if _, ok := f.byName[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	for _, e := range f.entries {
		value, ok := values[e.spec.Name]
		if !ok {
			value = e.spec.Default
		}
		e.value.SetOriginalValue(coerceSchemaValue(e.spec.Type, normalizeDecoded(value)))
	}
	f.RestoreOriginalValues()
	f.SetModified(false)
	return nil
}

// Commit records the current values as the original snapshot, typically
// after a successful save.
func (f *Form) Commit() {
	for _, e := range f.entries {
		e.value.CommitValue()
	}
	f.SetModified(false)
}

// HasErrors reports whether any field carries an error or critical message.
func (f *Form) HasErrors() bool {
	for _, e := range f.entries {
		if highest, ok := e.value.Messages().Highest(); ok && highest >= message.SeverityError {
			return true
		}
	}
	return false
}

// Messages returns the messages of every field that has any, keyed by name.
func (f *Form) Messages() map[string][]message.Message {
	out := make(map[string][]message.Message)
	for _, e := range f.entries {
		if msgs := e.value.Messages().Messages(); len(msgs) > 0 {
			out[e.spec.Name] = msgs
		}
	}
	return out
}

// DoUpdateView applies rules and validation. It runs inside the view-model's
// refresh and restore cycles with every field suppressed.
func (f *Form) DoUpdateView() error {
	ctx := visibility.Context{Values: f.Values(), Extras: f.extras}

	var errs []error
	for _, e := range f.entries {
		visible, err := f.evalRule(e.spec, e.spec.Visible, ctx)
		if err != nil {
			errs = append(errs, err)
		}
		enabled, err := f.evalRule(e.spec, e.spec.Enabled, ctx)
		if err != nil {
			errs = append(errs, err)
		}
		e.value.SetVisible(visible)
		e.value.SetEnabled(enabled)

		e.value.Messages().DeleteBySeverity(message.SeverityWarning)
		if !visible {
			continue
		}
		problems, err := f.checker.check(e.spec, e.value.Get())
		if err != nil {
			errs = append(errs, err)
		}
		for _, problem := range problems {
			e.value.Messages().Add(message.SeverityError, problem)
		}
	}
	return errors.Join(errs...)
}

// evalRule fails open: a broken rule keeps the field visible and enabled.
func (f *Form) evalRule(spec FieldSpec, rule string, ctx visibility.Context) (bool, error) {
	if rule == "" {
		return true, nil
	}
	ok, err := f.evaluator.Eval(spec.Name, rule, ctx)
	if err != nil {
		return true, fmt.Errorf("form: field %q rule %q: %w", spec.Name, rule, err)
	}
	return ok, nil
}
