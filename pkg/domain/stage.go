package domain

import "fmt"

// StageID identifies a stage of the interview script.
type StageID string

const (
	StageGreeting      StageID = "greeting"
	StageCollectName   StageID = "collect_name"
	StageCollectSalary StageID = "collect_salary"
	StageMotivation    StageID = "motivation"
	StageResolution    StageID = "resolution"
	StageRejection     StageID = "rejection"
	StageClosing       StageID = "closing"
)

// StageOrder lists every stage in script order. The entry stage comes first
// and the terminal stage last.
var StageOrder = []StageID{
	StageGreeting,
	StageCollectName,
	StageCollectSalary,
	StageMotivation,
	StageResolution,
	StageRejection,
	StageClosing,
}

// Valid reports whether s is one of the known stages.
func (s StageID) Valid() bool {
	for _, id := range StageOrder {
		if id == s {
			return true
		}
	}
	return false
}

func (s StageID) String() string { return string(s) }

// ParseStageID converts raw input into a StageID.
func ParseStageID(raw string) (StageID, error) {
	id := StageID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return id, nil
}

// Shape names the kind of data a stage expects from the candidate.
type Shape string

const (
	ShapeNone       Shape = "none"
	ShapeName       Shape = "name"
	ShapeSalary     Shape = "salary"
	ShapeMotivation Shape = "motivation"
)

// Field returns the key under which the shape's value travels in a payload.
// ShapeNone has no field.
func (s Shape) Field() string {
	if s == ShapeNone || s == "" {
		return ""
	}
	return string(s)
}

// Stage is an immutable node of the interview graph.
type Stage struct {
	ID StageID `json:"id" yaml:"id"`

	// Prompt is a text/template source rendered against the interview state.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Expects is the shape of data Complete must receive to leave this stage.
	Expects Shape `json:"expects" yaml:"expects"`

	// Function is the name of the function-calling handler that completes
	// this stage (e.g. "collect_salary"). Empty for the terminal stage.
	Function string `json:"function,omitempty" yaml:"function,omitempty"`

	Transition Transition `json:"transition" yaml:"transition"`
}

// Terminal reports whether the stage has no outgoing transition.
func (s Stage) Terminal() bool {
	return s.Transition.IsZero()
}
