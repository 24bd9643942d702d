package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput    = "input"
	WidgetConfirm  = "confirm"
	WidgetSelect   = "select"
	WidgetPassword = "password"
	WidgetList     = "list"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(spec form.FieldSpec) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry picks the prompt widget for a field based on an explicit
// Metadata["widget"] hint or registered matchers. Higher priority wins; ties
// fall back to registration order. Fields nothing matches use WidgetInput.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(spec form.FieldSpec) string {
	if explicit := strings.TrimSpace(spec.Metadata["widget"]); explicit != "" {
		return explicit
	}
	if r == nil {
		return WidgetInput
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(spec) {
			return entry.name
		}
	}
	return WidgetInput
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetConfirm, 90, func(spec form.FieldSpec) bool {
		return spec.Type == form.FieldTypeBoolean
	})

	r.Register(WidgetSelect, 70, func(spec form.FieldSpec) bool {
		return spec.Type != form.FieldTypeList && len(spec.Enum) > 0
	})

	r.Register(WidgetPassword, 60, func(spec form.FieldSpec) bool {
		if spec.Type != form.FieldTypeString {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(spec.Metadata["format"]), "password")
	})

	r.Register(WidgetList, 50, func(spec form.FieldSpec) bool {
		return spec.Type == form.FieldTypeList
	})
}
