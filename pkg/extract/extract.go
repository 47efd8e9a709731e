// Package extract turns candidate utterances into the structured payloads
// the interview engine completes stages with.
//
// In production this is the job of an LLM with function calling; the
// Extractor interface lets hosts plug that in, while Rules gives a
// deterministic implementation for the CLI runner and tests.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/screener/pkg/domain"
)

// ErrNoMatch is returned when an utterance holds no value of the requested shape.
var ErrNoMatch = fmt.Errorf("%w: no match", domain.ErrExtraction)

// Extractor pulls one typed value out of free-form speech.
type Extractor interface {
	Name(ctx context.Context, utterance string) (string, error)
	Salary(ctx context.Context, utterance string) (float64, error)
	Motivation(ctx context.Context, utterance string) (string, error)
}

// ForStage converts an utterance into the payload for a stage of the given shape.
//
// When the extractor finds nothing, ForStage returns an empty payload together
// with the extractor's error; submitting that payload makes the engine record
// the failed attempt and keep the session on the same stage.
func ForStage(ctx context.Context, x Extractor, shape domain.Shape, utterance string) (map[string]any, error) {
	var (
		value any
		err   error
	)
	switch shape {
	case domain.ShapeNone, "":
		return nil, nil
	case domain.ShapeName:
		value, err = x.Name(ctx, utterance)
	case domain.ShapeSalary:
		value, err = x.Salary(ctx, utterance)
	case domain.ShapeMotivation:
		value, err = x.Motivation(ctx, utterance)
	default:
		return nil, fmt.Errorf("unsupported shape %q", shape)
	}

	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			return map[string]any{}, err
		}
		return nil, err
	}
	return map[string]any{shape.Field(): value}, nil
}
