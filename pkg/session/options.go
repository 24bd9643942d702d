package session

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/widgets"
)

// Theme captures the prefixes used when printing field messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{
	InfoPrefix:  "  · ",
	ErrorPrefix: "  ✗ ",
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger routes session diagnostics to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithWidgets overrides the registry that picks a prompt per field.
func WithWidgets(registry *widgets.Registry) Option {
	return func(s *Session) {
		if registry != nil {
			s.widgets = registry
		}
	}
}
