package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction is matched by every *ExtractionError.
	ErrExtraction = errors.New("extraction failed")

	// ErrTerminalStage is returned when completing a stage that has no transition.
	ErrTerminalStage = errors.New("stage is terminal")

	// ErrUnknownStage is returned for stage IDs outside the script.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrInvalidGraph is returned when the stage set breaks a structural rule.
	ErrInvalidGraph = errors.New("invalid interview graph")

	// ErrInconsistentSession is returned for sessions whose path, position and
	// collected data cannot have been produced by the engine.
	ErrInconsistentSession = errors.New("inconsistent session")

	// ErrAttemptsExhausted is returned by hosts that cap re-prompting.
	ErrAttemptsExhausted = errors.New("extraction attempts exhausted")
)

// ExtractionError reports candidate data that does not fit the stage's shape.
// The session is left on the same stage with its interview state untouched.
type ExtractionError struct {
	Stage  StageID
	Field  string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("stage %s: invalid %s: %s", e.Stage, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtraction) hold for any ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// StageMismatchError is returned when an operation names a stage other than
// the session's current one.
type StageMismatchError struct {
	Current   StageID
	Requested StageID
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("session is at stage %s, not %s", e.Current, e.Requested)
}
