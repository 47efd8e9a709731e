package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/extract"
)

// Engine is the slice of the screener engine the runner drives.
type Engine interface {
	NewSession(ctx context.Context, id string) *domain.Session
	Render(ctx context.Context, sess *domain.Session) ([]domain.ActionRequest, bool, error)
	Complete(ctx context.Context, sess *domain.Session, stage domain.StageID, data map[string]any) (domain.StageID, error)
}

// Runner drives one interview from greeting to closing over an IOHandler.
type Runner struct {
	Handler     IOHandler
	Extractor   extract.Extractor
	Logger      *slog.Logger
	MaxAttempts int
	Reprompt    string
	SessionID   string
}

// NewRunner creates a Runner with a text handler on Stdin/Stdout and the
// rule-based extractor.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:   slog.New(slog.DiscardHandler),
		Reprompt: DefaultReprompt,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Extractor == nil {
		r.Extractor = extract.NewRules()
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Run drives sess until the terminal stage is shown, the input ends or the
// user types "exit"/"quit". A nil sess starts a new interview.
// The session is returned in every case so callers can inspect how far it got.
func (r *Runner) Run(ctx context.Context, engine Engine, sess *domain.Session) (*domain.Session, error) {
	if sess == nil {
		sess = engine.NewSession(ctx, r.SessionID)
	}
	log := r.Logger.With("session_id", sess.ID)

	for {
		if err := ctx.Err(); err != nil {
			return sess, err
		}

		// A. Render
		actions, terminal, err := engine.Render(ctx, sess)
		if err != nil {
			return sess, fmt.Errorf("render error: %w", err)
		}

		// B. Output
		wantsReply, err := r.Handler.Output(ctx, actions)
		if err != nil {
			return sess, fmt.Errorf("output error: %w", err)
		}
		if terminal {
			log.Info("interview finished", "outcome", sess.State.Outcome)
			return sess, nil
		}

		// C. Input + Extraction
		stage := sess.Current
		var data map[string]any
		if wantsReply {
			shape, _ := needsInput(actions)
			text, err := r.Handler.Input(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Debug("input closed", "stage", stage)
					return sess, nil
				}
				return sess, fmt.Errorf("input error: %w", err)
			}
			if isExit(text) {
				return sess, nil
			}

			data, err = extract.ForStage(ctx, r.Extractor, shape, text)
			switch {
			case errors.Is(err, domain.ErrExtraction):
				log.Debug("nothing extracted", "stage", stage, "err", err)
			case err != nil:
				return sess, fmt.Errorf("extraction error: %w", err)
			}
		}

		// D. Complete
		if _, err := engine.Complete(ctx, sess, stage, data); err != nil {
			if !errors.Is(err, domain.ErrExtraction) {
				return sess, fmt.Errorf("complete error: %w", err)
			}
			if r.MaxAttempts > 0 && sess.Attempts >= r.MaxAttempts {
				return sess, fmt.Errorf("stage %s after %d attempts: %w", stage, sess.Attempts, domain.ErrAttemptsExhausted)
			}
			if err := r.Handler.SystemOutput(ctx, r.Reprompt); err != nil {
				return sess, fmt.Errorf("output error: %w", err)
			}
		}
	}
}

func isExit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit":
		return true
	}
	return false
}
