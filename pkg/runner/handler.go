package runner

import (
	"context"

	"github.com/aretw0/screener/pkg/domain"
)

// IOHandler is the candidate's side of the conversation: a terminal, an
// NDJSON pipe or a test double.
type IOHandler interface {
	// Output speaks or prints the actions and reports whether a reply is expected.
	Output(ctx context.Context, actions []domain.ActionRequest) (bool, error)

	// Input reads a reply from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (re-prompt notice, status).
	// This is distinct from prompt rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer rewrites a prompt for display, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// needsInput reports whether actions request a reply, and of which shape.
func needsInput(actions []domain.ActionRequest) (domain.Shape, bool) {
	for _, act := range actions {
		if act.Type != domain.ActionRequestInput {
			continue
		}
		if req, ok := act.Payload.(domain.InputRequest); ok {
			return req.Expects, true
		}
		return domain.ShapeNone, true
	}
	return domain.ShapeNone, false
}
