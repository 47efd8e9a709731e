package script

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/template"

	"github.com/aretw0/screener/pkg/domain"
)

// ValidationError represents a single script validation failure.
type ValidationError struct {
	Key    string // Dotted path of the offending field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err wraps an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Validate checks the script for missing stages, malformed templates and an
// inconsistent salary policy. All failures are reported together.
func (s *Script) Validate() error {
	var errs []error
	fail := func(key, format string, args ...any) {
		errs = append(errs, &ValidationError{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	if s.Company == "" {
		fail("company", "required")
	}
	if s.Unit == "" {
		fail("unit", "required")
	}
	checkTemplate(fail, "role", s.Role)
	checkTemplate(fail, "reprompt", s.Reprompt)

	p := s.Salary
	for key, v := range map[string]float64{"salary.threshold": p.Threshold, "salary.minimum": p.Minimum, "salary.maximum": p.Maximum} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fail(key, "must be a finite number")
		}
	}
	if p.Minimum <= 0 {
		fail("salary.minimum", "must be positive")
	}
	if p.Maximum <= p.Minimum {
		fail("salary.maximum", "must be greater than minimum (%g)", p.Minimum)
	}
	if p.Threshold < p.Minimum || p.Threshold > p.Maximum {
		fail("salary.threshold", "must lie within [%g, %g]", p.Minimum, p.Maximum)
	}

	for id := range s.Stages {
		if !id.Valid() {
			fail("stages."+string(id), "unknown stage")
		}
	}
	for _, id := range domain.StageOrder {
		key := "stages." + string(id)
		st, ok := s.Stages[id]
		if !ok {
			fail(key, "required")
			continue
		}
		if st.Prompt == "" {
			fail(key+".prompt", "required")
		}
		checkTemplate(fail, key+".prompt", st.Prompt)

		if id == domain.StageClosing {
			if st.Function != nil {
				fail(key+".function", "terminal stage cannot declare a function")
			}
			continue
		}
		if st.Function == nil || st.Function.Name == "" {
			fail(key+".function.name", "required")
			continue
		}
		checkTemplate(fail, key+".function.description", st.Function.Description)
		checkTemplate(fail, key+".function.argument", st.Function.Argument)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func checkTemplate(fail func(key, format string, args ...any), key, src string) {
	if src == "" {
		return
	}
	if _, err := template.New(key).Parse(src); err != nil {
		fail(key, "invalid template: %v", err)
	}
}

// CheckTemplates executes every template in the script against data and
// reports each one that cannot render, such as a reference to a field data
// does not have.
func (s *Script) CheckTemplates(data any) error {
	var errs []error
	for _, t := range s.templates() {
		tmpl, err := template.New(t.key).Option("missingkey=error").Parse(t.src)
		if err != nil {
			errs = append(errs, &ValidationError{Key: t.key, Reason: fmt.Sprintf("invalid template: %v", err)})
			continue
		}
		if err := tmpl.Execute(io.Discard, data); err != nil {
			errs = append(errs, &ValidationError{Key: t.key, Reason: fmt.Sprintf("cannot render: %v", err)})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

type namedTemplate struct {
	key string
	src string
}

func (s *Script) templates() []namedTemplate {
	var out []namedTemplate
	add := func(key, src string) {
		if src != "" {
			out = append(out, namedTemplate{key: key, src: src})
		}
	}
	add("role", s.Role)
	add("reprompt", s.Reprompt)
	for _, id := range domain.StageOrder {
		st, ok := s.Stages[id]
		if !ok {
			continue
		}
		key := "stages." + string(id)
		add(key+".prompt", st.Prompt)
		if st.Function != nil {
			add(key+".function.description", st.Function.Description)
			add(key+".function.argument", st.Function.Argument)
		}
	}
	return out
}
