package runtime

import (
	"fmt"
	"text/template"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
)

// Graph is a validated, immutable set of interview stages.
type Graph struct {
	stages   map[domain.StageID]domain.Stage
	order    []domain.StageID
	prompts  map[domain.StageID]*template.Template
	entry    domain.StageID
	terminal domain.StageID
	script   *script.Script
}

// Compile builds the interview graph from a script and the transition table.
func Compile(sc *script.Script) (*Graph, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidGraph, err)
	}
	if err := sc.CheckTemplates(PromptData{}); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidGraph, err)
	}

	table := TransitionTable(sc.Salary.Threshold)
	stages := make([]domain.Stage, 0, len(domain.StageOrder))
	for _, id := range domain.StageOrder {
		st, _ := sc.Stage(id)
		stage := domain.Stage{
			ID:         id,
			Prompt:     st.Prompt,
			Expects:    Expectations[id],
			Transition: table[id],
		}
		if st.Function != nil {
			stage.Function = st.Function.Name
		}
		stages = append(stages, stage)
	}

	g, err := NewGraph(stages)
	if err != nil {
		return nil, err
	}
	g.script = sc
	return g, nil
}

// NewGraph validates the stages and parses their prompt templates.
func NewGraph(stages []domain.Stage) (*Graph, error) {
	g := &Graph{
		stages:  make(map[domain.StageID]domain.Stage, len(stages)),
		prompts: make(map[domain.StageID]*template.Template, len(stages)),
	}
	for _, s := range stages {
		if _, dup := g.stages[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate stage %q", domain.ErrInvalidGraph, s.ID)
		}
		g.stages[s.ID] = s
		g.order = append(g.order, s.ID)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	for _, s := range stages {
		tmpl, err := template.New(string(s.ID)).Parse(s.Prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: stage %s prompt: %w", domain.ErrInvalidGraph, s.ID, err)
		}
		g.prompts[s.ID] = tmpl
	}
	return g, nil
}

func (g *Graph) validate() error {
	for _, id := range domain.StageOrder {
		if _, ok := g.stages[id]; !ok {
			return fmt.Errorf("%w: missing stage %q", domain.ErrInvalidGraph, id)
		}
	}

	incoming := make(map[domain.StageID]int, len(g.stages))
	var terminals []domain.StageID
	for _, id := range g.order {
		s := g.stages[id]
		if !id.Valid() {
			return fmt.Errorf("%w: %w: %q", domain.ErrInvalidGraph, domain.ErrUnknownStage, id)
		}
		if s.Terminal() {
			terminals = append(terminals, id)
			continue
		}
		if s.Transition.Default != "" && s.Transition.Branch != nil {
			return fmt.Errorf("%w: stage %s has both a default and a branch transition", domain.ErrInvalidGraph, id)
		}
		if b := s.Transition.Branch; b != nil && b.Field != "" && b.Field != domain.ShapeSalary.Field() {
			return fmt.Errorf("%w: stage %s branches on unsupported field %q", domain.ErrInvalidGraph, id, b.Field)
		}
		if s.Transition.Branch != nil && s.Expects != domain.ShapeSalary {
			return fmt.Errorf("%w: stage %s branches on salary but does not collect it", domain.ErrInvalidGraph, id)
		}
		for _, to := range s.Transition.Targets() {
			if _, ok := g.stages[to]; !ok {
				return fmt.Errorf("%w: stage %s points to undefined stage %q", domain.ErrInvalidGraph, id, to)
			}
			incoming[to]++
		}
	}

	if len(terminals) != 1 || terminals[0] != domain.StageClosing {
		return fmt.Errorf("%w: expected closing as the only terminal stage, got %v", domain.ErrInvalidGraph, terminals)
	}
	g.terminal = terminals[0]

	var entries []domain.StageID
	for _, id := range g.order {
		if incoming[id] == 0 {
			entries = append(entries, id)
		}
	}
	if len(entries) != 1 || entries[0] != domain.StageGreeting {
		return fmt.Errorf("%w: expected greeting as the only entry stage, got %v", domain.ErrInvalidGraph, entries)
	}
	g.entry = entries[0]

	if err := g.checkAcyclic(); err != nil {
		return err
	}
	return g.checkReachesTerminal()
}

// checkAcyclic runs a three-colour DFS from every stage.
func (g *Graph) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[domain.StageID]int, len(g.stages))

	var visit func(id domain.StageID, path []domain.StageID) error
	visit = func(id domain.StageID, path []domain.StageID) error {
		switch colour[id] {
		case grey:
			return fmt.Errorf("%w: cycle %v", domain.ErrInvalidGraph, append(path, id))
		case black:
			return nil
		}
		colour[id] = grey
		for _, to := range g.stages[id].Transition.Targets() {
			if err := visit(to, append(path, id)); err != nil {
				return err
			}
		}
		colour[id] = black
		return nil
	}

	for _, id := range g.order {
		if err := visit(id, nil); err != nil {
			return err
		}
	}
	return nil
}

// checkReachesTerminal verifies that every stage is reachable from the entry
// and can itself reach the terminal stage.
func (g *Graph) checkReachesTerminal() error {
	reached := map[domain.StageID]bool{}
	queue := []domain.StageID{g.entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reached[id] {
			continue
		}
		reached[id] = true
		queue = append(queue, g.stages[id].Transition.Targets()...)
	}

	reverse := make(map[domain.StageID][]domain.StageID)
	for _, id := range g.order {
		for _, to := range g.stages[id].Transition.Targets() {
			reverse[to] = append(reverse[to], id)
		}
	}
	closes := map[domain.StageID]bool{}
	queue = []domain.StageID{g.terminal}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if closes[id] {
			continue
		}
		closes[id] = true
		queue = append(queue, reverse[id]...)
	}

	for _, id := range g.order {
		if !reached[id] {
			return fmt.Errorf("%w: stage %s is unreachable from %s", domain.ErrInvalidGraph, id, g.entry)
		}
		if !closes[id] {
			return fmt.Errorf("%w: stage %s never reaches %s", domain.ErrInvalidGraph, id, g.terminal)
		}
	}
	return nil
}

// Stage returns the stage with the given ID.
func (g *Graph) Stage(id domain.StageID) (domain.Stage, bool) {
	s, ok := g.stages[id]
	return s, ok
}

// Stages returns every stage in script order.
func (g *Graph) Stages() []domain.Stage {
	out := make([]domain.Stage, 0, len(g.order))
	for _, id := range domain.StageOrder {
		if s, ok := g.stages[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (g *Graph) Entry() domain.StageID    { return g.entry }
func (g *Graph) Terminal() domain.StageID { return g.terminal }

// Script returns the script the graph was compiled from, or nil for graphs
// built directly from stages.
func (g *Graph) Script() *script.Script { return g.script }

// DefaultSalaryPolicy applies to graphs built without a script.
var DefaultSalaryPolicy = script.SalaryPolicy{Threshold: 50, Minimum: 1, Maximum: 200}

// Policy returns the salary bounds completions are validated against.
func (g *Graph) Policy() script.SalaryPolicy {
	if g.script == nil {
		return DefaultSalaryPolicy
	}
	return g.script.Salary
}
