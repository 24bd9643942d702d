package form

import (
	"fmt"
	"strings"
)

// Validate checks the definition for structural problems.
func (d Definition) Validate() error {
	if len(d.Fields) == 0 {
		return ErrNoFields
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i, spec := range d.Fields {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return fmt.Errorf("form: field %d: name is required", i+1)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("form: field %q declared twice", name)
		}
		seen[name] = struct{}{}
		if spec.Type != "" && !spec.Type.valid() {
			return fmt.Errorf("form: field %q: unsupported type %q", name, spec.Type)
		}
		for _, rule := range spec.Validations {
			if err := validateRule(rule); err != nil {
				return fmt.Errorf("form: field %q: %w", name, err)
			}
		}
	}
	return nil
}

func validateRule(rule ValidationRule) error {
	switch rule.Kind {
	case ValidationRuleMin, ValidationRuleMax, ValidationRuleMinLength, ValidationRuleMaxLength:
		if strings.TrimSpace(rule.Params["value"]) == "" {
			return fmt.Errorf("%s rule requires a value", rule.Kind)
		}
	case ValidationRulePattern:
		if rule.Params["pattern"] == "" {
			return fmt.Errorf("pattern rule requires a pattern")
		}
	default:
		return fmt.Errorf("unknown validation rule %q", rule.Kind)
	}
	return nil
}
