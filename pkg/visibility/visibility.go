// Package visibility decides whether a field is shown or editable from a
// rule string evaluated against the current form values.
package visibility

// Evaluator determines whether a rule holds for a field given the current
// values and optional extras.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context carries the inputs of an evaluation. Values holds the form values
// keyed by field name; Extras lets callers inject things like roles or
// feature flags, addressed in rules with the `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
