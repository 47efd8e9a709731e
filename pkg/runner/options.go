package runner

import (
	"log/slog"

	"github.com/aretw0/screener/pkg/extract"
)

// DefaultReprompt is shown when a reply could not be understood.
const DefaultReprompt = "Sorry, I didn't catch that."

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithExtractor configures how replies become structured data.
func WithExtractor(x extract.Extractor) Option {
	return func(r *Runner) {
		r.Extractor = x
	}
}

// WithMaxAttempts stops the interview with domain.ErrAttemptsExhausted after
// n failed replies on the same stage. Zero (the default) re-prompts forever.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		r.MaxAttempts = n
	}
}

// WithReprompt sets the notice shown before a stage is asked again.
func WithReprompt(msg string) Option {
	return func(r *Runner) {
		r.Reprompt = msg
	}
}

// WithSessionID sets the ID used when Run has to start the session itself.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}
