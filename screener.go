package screener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/screener/internal/logging"
	"github.com/aretw0/screener/internal/runtime"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
	"github.com/google/uuid"
)

// Version is the release of the screener module.
const Version = "0.3.0"

// Engine runs screening interviews for one compiled script.
type Engine struct {
	runtime   *runtime.Engine
	script    *script.Script
	threshold *float64
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithScript replaces the embedded default script.
func WithScript(sc *script.Script) Option {
	return func(e *Engine) {
		e.script = sc
	}
}

// WithSalaryThreshold overrides the script's branch threshold (LPA).
func WithSalaryThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = &threshold
	}
}

// New validates the script and builds the interview graph.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.script == nil {
		eng.script = script.Default()
	}
	if eng.threshold != nil {
		eng.script = eng.script.WithThreshold(*eng.threshold)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("company", eng.script.Company)

	graph, err := runtime.Compile(eng.script)
	if err != nil {
		return nil, fmt.Errorf("failed to build interview graph: %w", err)
	}

	eng.runtime = runtime.NewEngine(graph,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	)
	return eng, nil
}

// NewSession starts an interview at the greeting stage.
// An empty id is replaced by a random UUID.
func (e *Engine) NewSession(ctx context.Context, id string) *domain.Session {
	if id == "" {
		id = uuid.NewString()
	}
	return e.runtime.Start(ctx, id)
}

// Enter returns the prompt of the session's current stage without changing the session.
func (e *Engine) Enter(ctx context.Context, sess *domain.Session, stage domain.StageID) (string, error) {
	return e.runtime.Enter(ctx, sess, stage)
}

// Complete submits extracted data for the current stage and returns the next stage.
// A *domain.ExtractionError leaves the session on the same stage.
func (e *Engine) Complete(ctx context.Context, sess *domain.Session, stage domain.StageID, data map[string]any) (domain.StageID, error) {
	return e.runtime.Complete(ctx, sess, stage, data)
}

// Render generates the actions (view) for the current stage without transitioning.
// Returns actions, isTerminal and error.
func (e *Engine) Render(ctx context.Context, sess *domain.Session) ([]domain.ActionRequest, bool, error) {
	stage, ok := e.Stage(sess.Current)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", domain.ErrUnknownStage, sess.Current)
	}
	prompt, err := e.Enter(ctx, sess, sess.Current)
	if err != nil {
		return nil, false, err
	}

	terminal := stage.Terminal()
	actions := []domain.ActionRequest{{
		Type:    domain.ActionRenderPrompt,
		Payload: domain.PromptPayload{Stage: stage.ID, Text: prompt, Terminal: terminal},
	}}
	if !terminal && stage.Expects != domain.ShapeNone {
		actions = append(actions, domain.ActionRequest{
			Type:    domain.ActionRequestInput,
			Payload: domain.InputRequest{Stage: stage.ID, Expects: stage.Expects, Attempt: sess.Attempts + 1},
		})
	}
	return actions, terminal, nil
}

// Inspect returns the full stage graph in script order for visualization or introspection tools.
func (e *Engine) Inspect() []domain.Stage {
	return e.runtime.Inspect()
}

// Stage looks up a single stage.
func (e *Engine) Stage(id domain.StageID) (domain.Stage, bool) {
	return e.runtime.Graph().Stage(id)
}

// Script returns the script the engine was built from.
func (e *Engine) Script() *script.Script {
	return e.script
}

// RenderText renders script text (role message, re-prompt, function
// descriptions) against the session state. A nil session renders with an
// empty state.
func (e *Engine) RenderText(src string, sess *domain.Session) (string, error) {
	state := domain.NewInterviewState()
	if sess != nil {
		state = sess.State
	}
	return runtime.Render(src, runtime.NewPromptData(e.script, state))
}
