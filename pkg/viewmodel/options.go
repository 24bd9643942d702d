package viewmodel

import "github.com/rs/zerolog"

// Updater is implemented by concrete view-models to push model data into
// their fields. DoUpdateView runs with every owned field suppressed.
type Updater interface {
	DoUpdateView() error
}

// UpdaterFunc adapts a function into an Updater.
type UpdaterFunc func() error

// DoUpdateView delegates to the underlying function.
func (fn UpdaterFunc) DoUpdateView() error {
	return fn()
}

// Option configures a Base.
type Option func(*Base)

// WithLogger routes hook diagnostics to logger. The default discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithUpdater installs the refresh hook.
func WithUpdater(updater Updater) Option {
	return func(b *Base) {
		b.updater = updater
	}
}

// WithHookErrorHandler registers fn to observe hook failures after they are
// logged.
func WithHookErrorHandler(fn func(*HookError)) Option {
	return func(b *Base) {
		b.onHookError = fn
	}
}
