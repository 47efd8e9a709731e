package runtime

import (
	"fmt"

	"github.com/aretw0/screener/pkg/domain"
)

// checkSession replays a session's history against the graph and rejects
// any position, data or outcome the engine could not have produced.
func (g *Graph) checkSession(sess *domain.Session) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInconsistentSession, fmt.Sprintf(format, args...))
	}

	if sess.Attempts < 0 {
		return bad("negative attempts %d", sess.Attempts)
	}
	if len(sess.History) == 0 {
		return bad("empty history")
	}
	if sess.History[0] != g.entry {
		return bad("history starts at %s, not %s", sess.History[0], g.entry)
	}
	if last := sess.History[len(sess.History)-1]; last != sess.Current {
		return bad("current stage %s is not the last visited stage %s", sess.Current, last)
	}

	state := sess.State
	outcome := domain.OutcomePending
	for i, id := range sess.History {
		stage, ok := g.stages[id]
		if !ok {
			return bad("history visits unknown stage %q", id)
		}
		if o, ok := outcomeOnEnter[id]; ok {
			outcome = o
		}
		if i == len(sess.History)-1 {
			break
		}
		if !collected(state, stage.Expects) {
			return bad("left %s without collecting %s", id, stage.Expects)
		}
		to := sess.History[i+1]
		want, err := stage.Transition.Next(state)
		if err != nil {
			return bad("cannot leave %s: %v", id, err)
		}
		if want != to {
			return bad("%s leads to %s, not %s", id, want, to)
		}
	}

	if state.Outcome != outcome {
		return bad("outcome %s does not match the visited stages (%s)", state.Outcome, outcome)
	}
	return nil
}

func collected(state domain.InterviewState, shape domain.Shape) bool {
	switch shape {
	case domain.ShapeName:
		return state.Name != nil
	case domain.ShapeSalary:
		return state.Salary != nil
	case domain.ShapeMotivation:
		return state.Motivation != nil
	default:
		return true
	}
}
