// Package field defines the capability a view-model needs from the fields it
// owns, and Value, the stock implementation used by forms.
//
// A field notifies its listeners when its value changes, unless its
// notifications are suppressed. Suppression is driven by the owning
// view-model around refresh and restore cycles; field code never toggles it
// on its own.
package field

import "github.com/goliatone/go-formstate/pkg/message"

// Field is the contract between a view-model and one bindable unit of view
// state.
type Field interface {
	// ID is the stable identifier used to route messages to the field.
	ID() int
	// BeginFieldUpdate prepares the field for a batch of programmatic changes.
	BeginFieldUpdate()
	// EndFieldUpdate closes the batch opened by BeginFieldUpdate.
	EndFieldUpdate()
	// SuppressNotifications toggles outbound change notifications.
	SuppressNotifications(suppress bool)
	NotificationsSuppressed() bool
	// RestoreOriginalValue resets the current value to the original snapshot.
	RestoreOriginalValue()
	IsChangedFromOriginalValue() bool
	Messages() *message.List
	// OnChanged registers fn to run after an unsuppressed value change. The
	// returned func removes the registration.
	OnChanged(fn func(Field)) (cancel func())
}
