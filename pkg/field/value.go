package field

import (
	"reflect"

	"github.com/goliatone/go-formstate/pkg/message"
)

// Value is a field holding an arbitrary value plus the view state a refresh
// hook typically drives (visibility, enabled state, required marker).
type Value struct {
	id       int
	name     string
	label    string
	current  any
	original any

	visible  bool
	enabled  bool
	required bool

	suppressed  bool
	updateDepth int
	updateStart any

	messages  message.List
	listeners []listener
	nextToken int
}

type listener struct {
	token int
	fn    func(Field)
}

// Option configures a Value at construction.
type Option func(*Value)

// WithLabel sets the human-readable label.
func WithLabel(label string) Option {
	return func(v *Value) {
		v.label = label
	}
}

// WithInitial seeds both the current value and the original snapshot.
func WithInitial(value any) Option {
	return func(v *Value) {
		v.current = value
		v.original = value
	}
}

// WithRequired marks the field as required.
func WithRequired(required bool) Option {
	return func(v *Value) {
		v.required = required
	}
}

// NewValue constructs a visible, enabled field.
func NewValue(id int, name string, options ...Option) *Value {
	v := &Value{
		id:      id,
		name:    name,
		visible: true,
		enabled: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Ensure Value satisfies the Field contract.
var _ Field = (*Value)(nil)

// ID returns the identifier used to route messages.
func (v *Value) ID() int { return v.id }

// Name returns the field name.
func (v *Value) Name() string { return v.name }

// Get returns the current value.
func (v *Value) Get() any { return v.current }

// Original returns the snapshot RestoreOriginalValue goes back to.
func (v *Value) Original() any { return v.original }

// Visible reports whether the field is shown.
func (v *Value) Visible() bool { return v.visible }

// Enabled reports whether the field accepts edits.
func (v *Value) Enabled() bool { return v.enabled }

// Required reports whether the field must carry a value.
func (v *Value) Required() bool { return v.required }

// Messages returns the field's message list.
func (v *Value) Messages() *message.List {
	return &v.messages
}

// Label falls back to the field name when no label was configured.
func (v *Value) Label() string {
	if v.label != "" {
		return v.label
	}
	return v.name
}

// SetVisible shows or hides the field. It does not notify listeners.
func (v *Value) SetVisible(visible bool) { v.visible = visible }

// SetEnabled toggles whether the field accepts edits.
func (v *Value) SetEnabled(enabled bool) { v.enabled = enabled }

// SetRequired toggles the required marker.
func (v *Value) SetRequired(required bool) { v.required = required }

// SetValue stores value and notifies listeners when it differs from the
// previous value and notifications are not suppressed.
func (v *Value) SetValue(value any) {
	if equalValues(v.current, value) {
		return
	}
	v.current = value
	v.emitChanged()
}

// SetOriginalValue replaces the snapshot used by RestoreOriginalValue.
func (v *Value) SetOriginalValue(value any) {
	v.original = value
}

// CommitValue makes the current value the new original snapshot.
func (v *Value) CommitValue() {
	v.original = v.current
}

// RestoreOriginalValue resets the current value to the snapshot. The reset
// notifies listeners like any other change unless suppressed.
func (v *Value) RestoreOriginalValue() {
	v.SetValue(v.original)
}

// IsChangedFromOriginalValue compares the current value with the snapshot
// structurally.
func (v *Value) IsChangedFromOriginalValue() bool {
	return !equalValues(v.current, v.original)
}

// SuppressNotifications toggles change notifications.
func (v *Value) SuppressNotifications(suppress bool) {
	v.suppressed = suppress
}

// NotificationsSuppressed reports whether change notifications are muted.
func (v *Value) NotificationsSuppressed() bool {
	return v.suppressed
}

// BeginFieldUpdate records the value at the start of the outermost batch.
func (v *Value) BeginFieldUpdate() {
	if v.updateDepth == 0 {
		v.updateStart = v.current
	}
	v.updateDepth++
}

// EndFieldUpdate closes a batch. Unbalanced calls are ignored.
func (v *Value) EndFieldUpdate() {
	if v.updateDepth == 0 {
		return
	}
	v.updateDepth--
	if v.updateDepth == 0 {
		v.updateStart = nil
	}
}

// InUpdate reports whether a batch opened by BeginFieldUpdate is still open.
func (v *Value) InUpdate() bool {
	return v.updateDepth > 0
}

// ChangedDuringUpdate reports whether the value moved since the outermost
// BeginFieldUpdate. It is false outside a batch.
func (v *Value) ChangedDuringUpdate() bool {
	if v.updateDepth == 0 {
		return false
	}
	return !equalValues(v.current, v.updateStart)
}

// OnChanged registers a change listener.
func (v *Value) OnChanged(fn func(Field)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	v.nextToken++
	token := v.nextToken
	v.listeners = append(v.listeners, listener{token: token, fn: fn})
	return func() {
		for i, l := range v.listeners {
			if l.token == token {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

func (v *Value) emitChanged() {
	if v.suppressed || len(v.listeners) == 0 {
		return
	}
	// Listeners may unsubscribe while running.
	snapshot := append([]listener(nil), v.listeners...)
	for _, l := range snapshot {
		l.fn(v)
	}
}

// equalValues treats numerically equal ints and floats as equal so values
// decoded from YAML (int) and JSON (float64) compare the way users expect.
func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
