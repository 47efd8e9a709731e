package domain

// Outcome is the screening decision.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// InterviewState holds the candidate data collected so far.
// Nil fields have not been collected yet.
type InterviewState struct {
	Name       *string  `json:"name,omitempty"`
	Salary     *float64 `json:"salary,omitempty"` // LPA
	Motivation *string  `json:"motivation,omitempty"`
	Outcome    Outcome  `json:"outcome"`
}

// NewInterviewState returns an empty state with a pending outcome.
func NewInterviewState() InterviewState {
	return InterviewState{Outcome: OutcomePending}
}

// Clone returns a deep copy, so the copy's pointers never alias the original.
func (s InterviewState) Clone() InterviewState {
	out := InterviewState{Outcome: s.Outcome}
	if s.Name != nil {
		v := *s.Name
		out.Name = &v
	}
	if s.Salary != nil {
		v := *s.Salary
		out.Salary = &v
	}
	if s.Motivation != nil {
		v := *s.Motivation
		out.Motivation = &v
	}
	return out
}
