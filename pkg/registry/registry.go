// Package registry binds the script's function-calling handlers
// (start_interview, collect_name, ...) to stage completion.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
)

var (
	ErrFunctionNotFound = errors.New("function not found")

	// ErrOutOfTurn is returned when a function does not complete the session's current stage.
	ErrOutOfTurn = errors.New("function not available at this stage")
)

// Function completes the session's current stage from function-call arguments
// and returns the next stage.
type Function func(ctx context.Context, sess *domain.Session, args map[string]any) (domain.StageID, error)

// Spec describes a function to a function-calling model.
type Spec struct {
	Name        string
	Description string
	// Argument describes the single parameter. Empty when the function takes none.
	Argument string
	Expects  domain.Shape
	// Stages lists every stage the function completes.
	Stages []domain.StageID
}

// Param returns the parameter name, or "" when the function takes none.
func (s Spec) Param() string {
	return s.Expects.Field()
}

// Registry manages the available functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
	specs map[string]Spec
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
		specs: make(map[string]Spec),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(spec Spec, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[spec.Name]; !ok {
		r.order = append(r.order, spec.Name)
	}
	r.funcs[spec.Name] = fn
	r.specs[spec.Name] = spec
}

// Execute looks up a function by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, sess *domain.Session, args map[string]any) (domain.StageID, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return fn(ctx, sess, args)
}

// Specs returns every function in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

// ForStage returns the function that completes stage.
func (r *Registry) ForStage(stage domain.StageID) (Spec, bool) {
	for _, spec := range r.Specs() {
		if slices.Contains(spec.Stages, stage) {
			return spec, true
		}
	}
	return Spec{}, false
}

// Engine is what the interview functions drive.
type Engine interface {
	Inspect() []domain.Stage
	Complete(ctx context.Context, sess *domain.Session, stage domain.StageID, data map[string]any) (domain.StageID, error)
	RenderText(src string, sess *domain.Session) (string, error)
	Script() *script.Script
}

// ForEngine registers one function per distinct function name in the
// engine's script. A function shared by several stages (end_interview)
// completes whichever of them is current.
func ForEngine(eng Engine) (*Registry, error) {
	specs := make(map[string]*Spec)
	var order []string
	for _, stage := range eng.Inspect() {
		if stage.Function == "" {
			continue
		}
		spec, ok := specs[stage.Function]
		if !ok {
			spec = &Spec{Name: stage.Function, Expects: stage.Expects}
			if ss, found := eng.Script().Stage(stage.ID); found && ss.Function != nil {
				desc, err := eng.RenderText(ss.Function.Description, nil)
				if err != nil {
					return nil, fmt.Errorf("function %s: %w", stage.Function, err)
				}
				arg, err := eng.RenderText(ss.Function.Argument, nil)
				if err != nil {
					return nil, fmt.Errorf("function %s: %w", stage.Function, err)
				}
				spec.Description, spec.Argument = desc, arg
			}
			specs[stage.Function] = spec
			order = append(order, stage.Function)
		}
		if spec.Expects != stage.Expects {
			return nil, fmt.Errorf("%w: function %s completes stages expecting %s and %s",
				domain.ErrInvalidGraph, spec.Name, spec.Expects, stage.Expects)
		}
		spec.Stages = append(spec.Stages, stage.ID)
	}

	r := NewRegistry()
	for _, name := range order {
		spec := *specs[name]
		r.Register(spec, complete(eng, spec))
	}
	return r, nil
}

func complete(eng Engine, spec Spec) Function {
	return func(ctx context.Context, sess *domain.Session, args map[string]any) (domain.StageID, error) {
		if sess == nil {
			return "", errors.New("nil session")
		}
		if !slices.Contains(spec.Stages, sess.Current) {
			return "", fmt.Errorf("%w: %s cannot complete stage %s", ErrOutOfTurn, spec.Name, sess.Current)
		}
		var data map[string]any
		if field := spec.Param(); field != "" {
			data = map[string]any{}
			if v, ok := args[field]; ok {
				data[field] = v
			}
		}
		return eng.Complete(ctx, sess, sess.Current, data)
	}
}
