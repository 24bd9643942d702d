package viewmodel

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/message"
)

// Base implements the view-model side of the field synchronisation
// protocol. Embed it (or hold a pointer) in a concrete view-model and install
// an Updater.
type Base struct {
	logger      zerolog.Logger
	updater     Updater
	onHookError func(*HookError)

	modified bool
	state    State

	fields    []ownedField
	observers []modifiedObserver
	nextToken int
}

type ownedField struct {
	field  field.Field
	cancel func()
}

type modifiedObserver struct {
	token int
	fn    func(bool)
}

// New constructs an idle, unmodified view-model without fields.
func New(options ...Option) *Base {
	b := &Base{
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	b.logger = b.logger.With().Str("component", "viewmodel").Logger()
	return b
}

// SetUpdater replaces the refresh hook. Passing nil restores the no-op hook.
func (b *Base) SetUpdater(updater Updater) {
	b.updater = updater
}

// IsModified reports whether any owned field changed since the flag was last
// cleared.
func (b *Base) IsModified() bool {
	return b.modified
}

// SetModified updates the flag and notifies observers only when the value
// actually changes.
func (b *Base) SetModified(value bool) {
	if b.modified == value {
		return
	}
	b.modified = value
	snapshot := append([]modifiedObserver(nil), b.observers...)
	for _, obs := range snapshot {
		obs.fn(value)
	}
}

// OnModifiedChanged registers fn to receive modified-state transitions.
func (b *Base) OnModifiedChanged(fn func(modified bool)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.nextToken++
	token := b.nextToken
	b.observers = append(b.observers, modifiedObserver{token: token, fn: fn})
	return func() {
		for i, obs := range b.observers {
			if obs.token == token {
				b.observers = append(b.observers[:i:i], b.observers[i+1:]...)
				return
			}
		}
	}
}

// IsUpdatingView reports whether a refresh or restore cycle is running.
func (b *Base) IsUpdatingView() bool {
	return b.state != StateIdle
}

// State reports the current cycle state.
func (b *Base) State() State {
	return b.state
}

// AddField takes ownership of f and subscribes to its change notifications.
func (b *Base) AddField(f field.Field) {
	if f == nil {
		return
	}
	cancel := f.OnChanged(func(field.Field) {
		b.OnFieldChanged()
	})
	b.fields = append(b.fields, ownedField{field: f, cancel: cancel})
}

// RemoveField drops every owned field with the given id and reports how many
// were removed.
func (b *Base) RemoveField(id int) int {
	removed := 0
	kept := b.fields[:0]
	for _, owned := range b.fields {
		if owned.field.ID() == id {
			owned.cancel()
			removed++
			continue
		}
		kept = append(kept, owned)
	}
	for i := len(kept); i < len(b.fields); i++ {
		b.fields[i] = ownedField{}
	}
	b.fields = kept
	return removed
}

// Fields returns a fresh snapshot of the owned fields in insertion order.
func (b *Base) Fields() []field.Field {
	if len(b.fields) == 0 {
		return nil
	}
	out := make([]field.Field, 0, len(b.fields))
	for _, owned := range b.fields {
		out = append(out, owned.field)
	}
	return out
}

// FieldsByID returns every owned field carrying id.
func (b *Base) FieldsByID(id int) []field.Field {
	var out []field.Field
	for _, f := range b.Fields() {
		if f.ID() == id {
			out = append(out, f)
		}
	}
	return out
}

// ChangedFields returns the fields whose value differs from their snapshot.
func (b *Base) ChangedFields() []field.Field {
	var out []field.Field
	for _, f := range b.Fields() {
		if f.IsChangedFromOriginalValue() {
			out = append(out, f)
		}
	}
	return out
}

// RefreshView runs a refresh cycle. It is a no-op while another cycle is
// running.
func (b *Base) RefreshView() {
	b.runCycle(StateRefreshing, nil)
}

// RestoreOriginalValues resets every field to its snapshot and then runs the
// refresh hook, all inside one cycle. It is a no-op while another cycle is
// running.
func (b *Base) RestoreOriginalValues() {
	b.runCycle(StateRestoring, field.Field.RestoreOriginalValue)
}

// OnFieldChanged is invoked when an owned field reports an unsuppressed
// change: the view-model becomes modified and the whole view is refreshed.
func (b *Base) OnFieldChanged() {
	b.SetModified(true)
	b.RefreshView()
}

// AreFieldsChangedFromOriginal reports whether any owned field differs from
// its snapshot.
func (b *Base) AreFieldsChangedFromOriginal() bool {
	for _, f := range b.Fields() {
		if f.IsChangedFromOriginalValue() {
			return true
		}
	}
	return false
}

// ClearFieldsMessages empties every owned field's message list.
func (b *Base) ClearFieldsMessages() {
	for _, f := range b.Fields() {
		f.Messages().Clear()
	}
}

// DeleteFieldsMessagesBySeverity removes messages at or above min from every
// owned field.
func (b *Base) DeleteFieldsMessagesBySeverity(min message.Severity) {
	for _, f := range b.Fields() {
		f.Messages().DeleteBySeverity(min)
	}
}

// AddFieldMessageByFieldID appends a message to every owned field with the
// given id. Ids are not required to be unique; no match is a no-op.
func (b *Base) AddFieldMessageByFieldID(id int, severity message.Severity, text string) {
	for _, f := range b.FieldsByID(id) {
		f.Messages().Add(severity, text)
	}
}

func (b *Base) runCycle(cycle State, prepare func(field.Field)) {
	if b.state != StateIdle {
		return
	}
	b.state = cycle

	fields := b.Fields()
	begun := 0
	defer func() {
		for _, f := range fields[:begun] {
			f.EndFieldUpdate()
			f.SuppressNotifications(false)
		}
		b.state = StateIdle
	}()

	for _, f := range fields {
		f.SuppressNotifications(true)
		f.BeginFieldUpdate()
		begun++
		if prepare != nil {
			prepare(f)
		}
	}

	b.callHook(cycle)
}

func (b *Base) callHook(cycle State) {
	if b.updater == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			b.reportHookError(&HookError{Cycle: cycle, Panic: recovered})
		}
	}()
	if err := b.updater.DoUpdateView(); err != nil {
		b.reportHookError(&HookError{Cycle: cycle, Err: err})
	}
}

func (b *Base) reportHookError(hookErr *HookError) {
	if hookErr.Panic != nil {
		b.logger.Error().
			Str("cycle", hookErr.Cycle.String()).
			Interface("panic", hookErr.Panic).
			Msg("view update hook panicked")
	} else {
		b.logger.Warn().
			Str("cycle", hookErr.Cycle.String()).
			Err(hookErr.Err).
			Msg("view update hook failed")
	}
	if b.onHookError != nil {
		b.onHookError(hookErr)
	}
}
