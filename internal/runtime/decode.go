package runtime

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const maxNameLength = 120

type nameArgs struct {
	Name *string `mapstructure:"name"`
}

type salaryArgs struct {
	Salary *float64 `mapstructure:"salary"`
}

type motivationArgs struct {
	Motivation *string `mapstructure:"motivation"`
}

// patch is the validated contribution of one completion to the state.
type patch struct {
	name       *string
	salary     *float64
	motivation *string
}

func (p patch) apply(state *domain.InterviewState) {
	if p.name != nil {
		state.Name = p.name
	}
	if p.salary != nil {
		state.Salary = p.salary
	}
	if p.motivation != nil {
		state.Motivation = p.motivation
	}
}

// decodeWeak decodes function-calling arguments, accepting numbers sent as
// strings ("30") the way LLM tool calls often do.
func decodeWeak(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// extract validates data against the shape the stage expects.
// Any finite, non-negative salary is accepted; the branch decides what it means.
func extract(stage domain.Stage, data map[string]any) (patch, error) {
	field := stage.Expects.Field()
	fail := func(reason string, err error) (patch, error) {
		return patch{}, &domain.ExtractionError{Stage: stage.ID, Field: field, Reason: reason, Err: err}
	}

	switch stage.Expects {
	case domain.ShapeNone, "":
		return patch{}, nil

	case domain.ShapeName:
		var args nameArgs
		if err := decodeWeak(data, &args); err != nil {
			return fail("not a text value", err)
		}
		if args.Name == nil {
			return fail("missing", nil)
		}
		name := strings.Join(strings.Fields(*args.Name), " ")
		switch {
		case name == "":
			return fail("empty", nil)
		case utf8.RuneCountInString(name) > maxNameLength:
			return fail("too long", nil)
		case strings.IndexFunc(name, unicode.IsLetter) < 0:
			return fail("contains no letters", nil)
		}
		return patch{name: &name}, nil

	case domain.ShapeSalary:
		var args salaryArgs
		if err := decodeWeak(data, &args); err != nil {
			return fail("not a number", err)
		}
		if args.Salary == nil {
			return fail("missing", nil)
		}
		v := *args.Salary
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return fail("not a finite number", nil)
		case v < 0:
			return fail("negative amount", nil)
		}
		return patch{salary: &v}, nil

	case domain.ShapeMotivation:
		var args motivationArgs
		if err := decodeWeak(data, &args); err != nil {
			return fail("not a text value", err)
		}
		if args.Motivation == nil {
			return fail("missing", nil)
		}
		m := strings.TrimSpace(*args.Motivation)
		if m == "" {
			return fail("empty", nil)
		}
		return patch{motivation: &m}, nil

	default:
		return fail(fmt.Sprintf("unsupported shape %q", stage.Expects), nil)
	}
}
