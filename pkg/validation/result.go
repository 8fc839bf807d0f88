// Package validation holds the per-step rules of the wizard. Rules are pure:
// they take the raw values a step collected and return either the normalized
// values to persist or one message per offending field.
package validation

import (
	"sort"
	"strings"
)

// Values maps field names to raw or normalized input.
type Values map[string]string

// Clone returns a shallow copy that callers can mutate freely.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Errors maps field names to a single human-readable message.
type Errors map[string]string

// Fields returns the offending field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Result is the tagged outcome of a rule: Errors is empty exactly when the
// input was accepted, in which case Values carries the normalized input.
type Result struct {
	Values Values `json:"values,omitempty"`
	Errors Errors `json:"errors,omitempty"`
}

// Valid builds an accepting result.
func Valid(values Values) Result {
	return Result{Values: values}
}

// Invalid builds a rejecting result.
func Invalid(errs Errors) Result {
	return Result{Errors: errs}
}

// OK reports whether the rule accepted the input.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Rule validates and normalizes one step's values.
type Rule func(Values) Result

func finish(values Values, errs Errors) Result {
	if len(errs) > 0 {
		return Invalid(errs)
	}
	return Valid(values)
}

func requireText(in Values, field, message string, out Values, errs Errors) (string, bool) {
	value := strings.TrimSpace(in[field])
	out[field] = value
	if value == "" {
		errs[field] = message
		return "", false
	}
	return value, true
}
