package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/screener/internal/logging"
	"github.com/aretw0/screener/pkg/domain"
)

// Engine drives sessions through the interview graph.
// It performs no I/O, holds no locks and keeps no per-session state.
type Engine struct {
	graph  *Graph
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Sessions without their own logger use it.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine over a validated graph.
func NewEngine(graph *Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:  graph,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph the engine runs.
func (e *Engine) Graph() *Graph { return e.graph }

// Start creates a session positioned at the entry stage.
func (e *Engine) Start(ctx context.Context, id string) *domain.Session {
	sess := domain.NewSession(id, e.graph.Entry())
	sess.Logger = e.logger.With("session_id", id)
	sess.Logger.Debug("interview started", "stage", sess.Current)
	e.emitStageEnter(ctx, sess, sess.Current)
	return sess
}

// Enter renders the prompt of the session's current stage.
// It never changes the session, so calling it repeatedly yields the same prompt.
func (e *Engine) Enter(ctx context.Context, sess *domain.Session, id domain.StageID) (string, error) {
	if _, err := e.current(sess, id); err != nil {
		return "", err
	}
	prompt, err := e.graph.renderPrompt(id, sess.State)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", id, err)
	}
	return prompt, nil
}

// Complete validates data for the current stage, merges it into the
// interview state and advances the session along the transition table.
//
// On an *domain.ExtractionError the session stays on the same stage with its
// interview state untouched; only the attempts counter grows.
func (e *Engine) Complete(ctx context.Context, sess *domain.Session, id domain.StageID, data map[string]any) (domain.StageID, error) {
	stage, err := e.current(sess, id)
	if err != nil {
		return "", err
	}
	if stage.Terminal() {
		return "", fmt.Errorf("stage %s: %w", id, domain.ErrTerminalStage)
	}
	log := sess.Log(e.logger)

	p, err := extract(stage, data)
	if err != nil {
		sess.Attempts++
		e.emitExtractionFailure(ctx, sess, err)
		log.Debug("extraction failed", "stage", id, "attempt", sess.Attempts, "err", err)
		return "", err
	}

	next := sess.State.Clone()
	p.apply(&next)

	to, err := stage.Transition.Next(next)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", id, err)
	}

	previous := next.Outcome
	if previous == domain.OutcomeRejected && closedAfterRejection[to] {
		return "", fmt.Errorf("%w: rejected candidate routed to %s", domain.ErrInvalidGraph, to)
	}
	if outcome, ok := outcomeOnEnter[to]; ok {
		next.Outcome = outcome
	}

	e.emitStageLeave(ctx, sess, id)
	sess.State = next
	sess.Current = to
	sess.History = append(sess.History, to)
	sess.Attempts = 0
	log.Info("stage completed", "stage", id, "next", to)
	e.emitStageEnter(ctx, sess, to)

	if next.Outcome != previous {
		log.Info("screening decided", "outcome", next.Outcome)
		e.emitOutcome(ctx, sess, next.Outcome)
	}
	return to, nil
}

// Inspect returns every stage in script order.
func (e *Engine) Inspect() []domain.Stage {
	return e.graph.Stages()
}

func (e *Engine) current(sess *domain.Session, id domain.StageID) (domain.Stage, error) {
	if sess == nil {
		return domain.Stage{}, errors.New("nil session")
	}
	stage, ok := e.graph.Stage(id)
	if !ok {
		return domain.Stage{}, fmt.Errorf("%w: %q", domain.ErrUnknownStage, id)
	}
	if sess.Current != id {
		return domain.Stage{}, &domain.StageMismatchError{Current: sess.Current, Requested: id}
	}
	if err := e.graph.checkSession(sess); err != nil {
		return domain.Stage{}, err
	}
	return stage, nil
}

func (e *Engine) base(sess *domain.Session, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: sess.ID}
}

func (e *Engine) emitStageEnter(ctx context.Context, sess *domain.Session, id domain.StageID) {
	if e.hooks.OnStageEnter != nil {
		e.hooks.OnStageEnter(ctx, &domain.StageEvent{EventBase: e.base(sess, domain.EventStageEnter), StageID: id})
	}
}

func (e *Engine) emitStageLeave(ctx context.Context, sess *domain.Session, id domain.StageID) {
	if e.hooks.OnStageLeave != nil {
		e.hooks.OnStageLeave(ctx, &domain.StageEvent{EventBase: e.base(sess, domain.EventStageLeave), StageID: id})
	}
}

func (e *Engine) emitExtractionFailure(ctx context.Context, sess *domain.Session, err error) {
	if e.hooks.OnExtractionFailure == nil {
		return
	}
	ev := &domain.ExtractionEvent{EventBase: e.base(sess, domain.EventExtractionFailure), StageID: sess.Current, Attempt: sess.Attempts}
	if xerr, ok := err.(*domain.ExtractionError); ok {
		ev.Field = xerr.Field
		ev.Reason = xerr.Reason
	}
	e.hooks.OnExtractionFailure(ctx, ev)
}

func (e *Engine) emitOutcome(ctx context.Context, sess *domain.Session, outcome domain.Outcome) {
	if e.hooks.OnOutcome != nil {
		e.hooks.OnOutcome(ctx, &domain.OutcomeEvent{EventBase: e.base(sess, domain.EventOutcome), Outcome: outcome})
	}
}
