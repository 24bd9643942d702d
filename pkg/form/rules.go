package form

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// checker evaluates a field's validation rules. Compiled patterns are cached
// per form.
type checker struct {
	patterns map[string]*regexp.Regexp
}

func newChecker() *checker {
	return &checker{patterns: make(map[string]*regexp.Regexp)}
}

// check returns the user-facing problems with value. The error reports rule
// configuration problems (such as an invalid pattern), not invalid input.
func (c *checker) check(spec FieldSpec, value any) ([]string, error) {
	label := spec.DisplayLabel()
	if isEmpty(value) {
		if spec.Required {
			return []string{label + " is required"}, nil
		}
		return nil, nil
	}

	if problem := checkType(spec, value); problem != "" {
		return []string{problem}, nil
	}

	var (
		problems []string
		ruleErrs []string
	)
	for _, rule := range spec.Validations {
		problem, err := c.checkRule(spec, rule, value)
		if err != nil {
			ruleErrs = append(ruleErrs, err.Error())
			continue
		}
		if problem != "" {
			if custom := strings.TrimSpace(rule.Params["message"]); custom != "" {
				problem = custom
			}
			problems = append(problems, problem)
		}
	}
	if len(spec.Enum) > 0 && !inEnum(spec.Enum, value) {
		problems = append(problems, fmt.Sprintf("%s must be one of %s", label, joinEnum(spec.Enum)))
	}

	if len(ruleErrs) > 0 {
		return problems, fmt.Errorf("form: field %q: %s", spec.Name, strings.Join(ruleErrs, "; "))
	}
	return problems, nil
}

func (c *checker) checkRule(spec FieldSpec, rule ValidationRule, value any) (string, error) {
	label := spec.DisplayLabel()
	switch rule.Kind {
	case ValidationRuleMin, ValidationRuleMax:
		limit, err := strconv.ParseFloat(strings.TrimSpace(rule.Params["value"]), 64)
		if err != nil {
			return "", fmt.Errorf("%s rule: invalid value %q", rule.Kind, rule.Params["value"])
		}
		got, ok := toNumber(value)
		if !ok {
			return "", nil
		}
		exclusive := strings.EqualFold(rule.Params["exclusive"], "true")
		if rule.Kind == ValidationRuleMin {
			if exclusive && got <= limit {
				return fmt.Sprintf("%s must be greater than %s", label, formatNumber(limit)), nil
			}
			if got < limit {
				return fmt.Sprintf("%s must be at least %s", label, formatNumber(limit)), nil
			}
			return "", nil
		}
		if exclusive && got >= limit {
			return fmt.Sprintf("%s must be less than %s", label, formatNumber(limit)), nil
		}
		if got > limit {
			return fmt.Sprintf("%s must be at most %s", label, formatNumber(limit)), nil
		}
		return "", nil

	case ValidationRuleMinLength, ValidationRuleMaxLength:
		limit, err := strconv.Atoi(strings.TrimSpace(rule.Params["value"]))
		if err != nil {
			return "", fmt.Errorf("%s rule: invalid value %q", rule.Kind, rule.Params["value"])
		}
		length, unit := measure(value)
		if rule.Kind == ValidationRuleMinLength && length < limit {
			return fmt.Sprintf("%s must have at least %d %s", label, limit, unit), nil
		}
		if rule.Kind == ValidationRuleMaxLength && length > limit {
			return fmt.Sprintf("%s must have at most %d %s", label, limit, unit), nil
		}
		return "", nil

	case ValidationRulePattern:
		expr := rule.Params["pattern"]
		re, err := c.compile(expr)
		if err != nil {
			return "", err
		}
		if !re.MatchString(fmt.Sprint(value)) {
			return fmt.Sprintf("%s has an invalid format", label), nil
		}
		return "", nil

	default:
		return "", fmt.Errorf("unknown validation rule %q", rule.Kind)
	}
}

func (c *checker) compile(expr string) (*regexp.Regexp, error) {
	if re, ok := c.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("pattern rule: %w", err)
	}
	c.patterns[expr] = re
	return re, nil
}

func checkType(spec FieldSpec, value any) string {
	label := spec.DisplayLabel()
	switch spec.Type {
	case FieldTypeInteger:
		n, ok := toNumber(value)
		if !ok || n != math.Trunc(n) {
			return label + " must be a whole number"
		}
	case FieldTypeNumber:
		if _, ok := toNumber(value); !ok {
			return label + " must be a number"
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return label + " must be yes or no"
		}
	case FieldTypeList:
		if _, ok := value.([]any); !ok {
			return label + " must be a list"
		}
	}
	return ""
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func measure(value any) (int, string) {
	if list, ok := value.([]any); ok {
		return len(list), "items"
	}
	return utf8.RuneCountInString(fmt.Sprint(value)), "characters"
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func inEnum(options []any, value any) bool {
	want := fmt.Sprint(value)
	for _, option := range options {
		if fmt.Sprint(option) == want {
			return true
		}
	}
	return false
}

func joinEnum(options []any) string {
	parts := make([]string, 0, len(options))
	for _, option := range options {
		parts = append(parts, fmt.Sprint(option))
	}
	return strings.Join(parts, ", ")
}
