package domain

import "fmt"

// Transition defines where a stage goes once it completes.
// Exactly one of Default or Branch is set; a zero Transition marks a terminal stage.
type Transition struct {
	Default StageID `json:"default,omitempty" yaml:"default,omitempty"`
	Branch  *Branch `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// Branch routes on the collected salary expectation.
// Salary strictly greater than Threshold goes Above, anything else AtOrBelow.
type Branch struct {
	Field     string  `json:"field" yaml:"field"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Above     StageID `json:"above" yaml:"above"`
	AtOrBelow StageID `json:"at_or_below" yaml:"at_or_below"`
}

// IsZero reports whether the transition leads nowhere.
func (t Transition) IsZero() bool {
	return t.Default == "" && t.Branch == nil
}

// Targets returns every stage the transition may lead to.
func (t Transition) Targets() []StageID {
	switch {
	case t.Branch != nil:
		return []StageID{t.Branch.AtOrBelow, t.Branch.Above}
	case t.Default != "":
		return []StageID{t.Default}
	default:
		return nil
	}
}

// Next resolves the transition against the interview state.
func (t Transition) Next(state InterviewState) (StageID, error) {
	if t.Branch == nil {
		if t.Default == "" {
			return "", ErrTerminalStage
		}
		return t.Default, nil
	}
	if t.Branch.Field != "" && t.Branch.Field != ShapeSalary.Field() {
		return "", fmt.Errorf("%w: cannot branch on %q", ErrInvalidGraph, t.Branch.Field)
	}
	if state.Salary == nil {
		return "", fmt.Errorf("%w: branch requires a salary", ErrInvalidGraph)
	}
	if *state.Salary > t.Branch.Threshold {
		return t.Branch.Above, nil
	}
	return t.Branch.AtOrBelow, nil
}
