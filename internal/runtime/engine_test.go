package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/screener/internal/runtime"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	g, err := runtime.Compile(script.Default())
	require.NoError(t, err)
	return runtime.NewEngine(g, opts...)
}

// complete drives the current stage and fails the test on error.
func complete(t *testing.T, e *runtime.Engine, sess *domain.Session, data map[string]any) domain.StageID {
	t.Helper()
	next, err := e.Complete(context.Background(), sess, sess.Current, data)
	require.NoError(t, err, "completing %s", sess.Current)
	return next
}

func TestEngine_HappyPath(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "s1")
	assert.Equal(t, domain.StageGreeting, sess.Current)

	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya Sharma"})
	next := complete(t, e, sess, map[string]any{"salary": 30})
	assert.Equal(t, domain.StageMotivation, next)

	next = complete(t, e, sess, map[string]any{"motivation": "I love the product"})
	assert.Equal(t, domain.StageResolution, next)
	assert.Equal(t, domain.OutcomeAccepted, sess.State.Outcome)

	next = complete(t, e, sess, nil)
	assert.Equal(t, domain.StageClosing, next)

	assert.Equal(t, []domain.StageID{
		domain.StageGreeting,
		domain.StageCollectName,
		domain.StageCollectSalary,
		domain.StageMotivation,
		domain.StageResolution,
		domain.StageClosing,
	}, sess.History)
	require.NotNil(t, sess.State.Name)
	assert.Equal(t, "Priya Sharma", *sess.State.Name)
	assert.Equal(t, 30.0, *sess.State.Salary)
	assert.Equal(t, "I love the product", *sess.State.Motivation)
}

func TestEngine_Rejection(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "s2")

	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Arjun"})
	next := complete(t, e, sess, map[string]any{"salary": 75})
	assert.Equal(t, domain.StageRejection, next)
	assert.Equal(t, domain.OutcomeRejected, sess.State.Outcome)

	next = complete(t, e, sess, nil)
	assert.Equal(t, domain.StageClosing, next)
	assert.NotContains(t, sess.History, domain.StageMotivation)
	assert.NotContains(t, sess.History, domain.StageResolution)
	assert.Nil(t, sess.State.Motivation)
}

func TestEngine_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		salary  any
		want    domain.StageID
		outcome domain.Outcome
	}{
		{50, domain.StageMotivation, domain.OutcomePending},
		{"50", domain.StageMotivation, domain.OutcomePending},
		{50.0001, domain.StageRejection, domain.OutcomeRejected},
		{1, domain.StageMotivation, domain.OutcomePending},
		{0, domain.StageMotivation, domain.OutcomePending},
		{0.5, domain.StageMotivation, domain.OutcomePending},
		{200, domain.StageRejection, domain.OutcomeRejected},
		{201, domain.StageRejection, domain.OutcomeRejected},
		{250, domain.StageRejection, domain.OutcomeRejected},
		{1000, domain.StageRejection, domain.OutcomeRejected},
	}

	for _, tt := range tests {
		e := newEngine(t)
		sess := e.Start(context.Background(), "boundary")
		complete(t, e, sess, nil)
		complete(t, e, sess, map[string]any{"name": "Meera"})

		next := complete(t, e, sess, map[string]any{"salary": tt.salary})
		assert.Equal(t, tt.want, next, "salary %v", tt.salary)
		assert.Equal(t, tt.outcome, sess.State.Outcome, "salary %v", tt.salary)
	}
}

func TestEngine_MalformedSalaryStaysOnStage(t *testing.T) {
	var failures []*domain.ExtractionEvent
	e := newEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnExtractionFailure: func(_ context.Context, ev *domain.ExtractionEvent) { failures = append(failures, ev) },
	}))
	sess := e.Start(context.Background(), "s4")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Kabir"})

	before := sess.State.Clone()
	for _, bad := range []map[string]any{
		{"salary": "a lot"},
		{"salary": "NaN"},
		{"salary": "+Inf"},
		{"salary": -5},
		{},
		nil,
	} {
		_, err := e.Complete(context.Background(), sess, domain.StageCollectSalary, bad)
		require.Error(t, err, "payload %v", bad)

		var xerr *domain.ExtractionError
		require.ErrorAs(t, err, &xerr)
		assert.Equal(t, domain.StageCollectSalary, xerr.Stage)
		assert.Equal(t, "salary", xerr.Field)
		assert.True(t, errors.Is(err, domain.ErrExtraction))

		assert.Equal(t, domain.StageCollectSalary, sess.Current)
		assert.Equal(t, before, sess.State)
	}
	assert.Equal(t, 6, sess.Attempts)
	require.Len(t, failures, 6)
	assert.Equal(t, 6, failures[5].Attempt)

	next := complete(t, e, sess, map[string]any{"salary": "42"})
	assert.Equal(t, domain.StageMotivation, next)
	assert.Zero(t, sess.Attempts)
}

func TestEngine_NameValidation(t *testing.T) {
	e := newEngine(t)
	for _, bad := range []map[string]any{{"name": "   "}, {"name": 42}, {"other": "Priya"}} {
		sess := e.Start(context.Background(), "names")
		complete(t, e, sess, nil)
		_, err := e.Complete(context.Background(), sess, domain.StageCollectName, bad)
		assert.ErrorIs(t, err, domain.ErrExtraction, "payload %v", bad)
		assert.Nil(t, sess.State.Name)
	}

	sess := e.Start(context.Background(), "names")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "  Priya   Sharma "})
	assert.Equal(t, "Priya Sharma", *sess.State.Name)
}

func TestEngine_EnterIsIdempotent(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "idem")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya"})

	snapshot := sess.Clone()
	first, err := e.Enter(context.Background(), sess, domain.StageCollectSalary)
	require.NoError(t, err)
	second, err := e.Enter(context.Background(), sess, domain.StageCollectSalary)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Priya")
	assert.Contains(t, first, "LPA")
	assert.Equal(t, snapshot.Current, sess.Current)
	assert.Equal(t, snapshot.History, sess.History)
	assert.Equal(t, snapshot.State, sess.State)
}

func TestEngine_PromptsRenderState(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "render")

	greeting, err := e.Enter(context.Background(), sess, domain.StageGreeting)
	require.NoError(t, err)
	assert.Contains(t, greeting, "Commotion")

	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya"})
	complete(t, e, sess, map[string]any{"salary": 45.5})

	motivation, err := e.Enter(context.Background(), sess, domain.StageMotivation)
	require.NoError(t, err)
	assert.Contains(t, motivation, "45.5 LPA")
}

func TestEngine_TerminalStage(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "term")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya"})
	complete(t, e, sess, map[string]any{"salary": 99})
	complete(t, e, sess, nil)
	require.Equal(t, domain.StageClosing, sess.Current)

	prompt, err := e.Enter(context.Background(), sess, domain.StageClosing)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Priya")

	_, err = e.Complete(context.Background(), sess, domain.StageClosing, nil)
	assert.ErrorIs(t, err, domain.ErrTerminalStage)
	assert.Equal(t, domain.StageClosing, sess.Current)
}

func TestEngine_StageMismatch(t *testing.T) {
	e := newEngine(t)
	sess := e.Start(context.Background(), "mismatch")

	_, err := e.Complete(context.Background(), sess, domain.StageCollectSalary, map[string]any{"salary": 30})
	var mismatch *domain.StageMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, domain.StageGreeting, mismatch.Current)

	_, err = e.Enter(context.Background(), sess, domain.StageClosing)
	require.ErrorAs(t, err, &mismatch)

	_, err = e.Enter(context.Background(), sess, "small_talk")
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
	assert.Equal(t, domain.StageGreeting, sess.Current)
	assert.Zero(t, sess.Attempts)
}

func TestEngine_RejectsTamperedSessions(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	rejected := e.Start(ctx, "tampered")
	complete(t, e, rejected, nil)
	complete(t, e, rejected, map[string]any{"name": "Priya"})
	complete(t, e, rejected, map[string]any{"salary": 75})
	require.Equal(t, domain.StageRejection, rejected.Current)

	tests := []struct {
		name   string
		mutate func(s *domain.Session)
	}{
		{"rejected candidate moved to motivation", func(s *domain.Session) {
			s.Current = domain.StageMotivation
			s.History = []domain.StageID{domain.StageGreeting}
		}},
		{"current is not the last visited stage", func(s *domain.Session) {
			s.Current = domain.StageMotivation
		}},
		{"history skips the branch", func(s *domain.Session) {
			s.Current = domain.StageMotivation
			s.History = []domain.StageID{domain.StageGreeting, domain.StageMotivation}
		}},
		{"outcome flipped after rejection", func(s *domain.Session) {
			s.State.Outcome = domain.OutcomeAccepted
		}},
		{"salary lowered after rejection", func(s *domain.Session) {
			low := 20.0
			s.State.Salary = &low
		}},
		{"salary dropped", func(s *domain.Session) {
			s.State.Salary = nil
		}},
		{"empty history", func(s *domain.Session) {
			s.History = nil
		}},
		{"history does not start at greeting", func(s *domain.Session) {
			s.History = s.History[1:]
		}},
		{"negative attempts", func(s *domain.Session) {
			s.Attempts = -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := rejected.Clone()
			tt.mutate(sess)
			before := sess.Clone()

			_, err := e.Complete(ctx, sess, sess.Current, map[string]any{"motivation": "let me in"})
			require.ErrorIs(t, err, domain.ErrInconsistentSession)
			_, err = e.Enter(ctx, sess, sess.Current)
			require.ErrorIs(t, err, domain.ErrInconsistentSession)
			assert.Equal(t, before, sess)
		})
	}

	t.Run("untouched session still advances", func(t *testing.T) {
		sess := rejected.Clone()
		assert.Equal(t, domain.StageClosing, complete(t, e, sess, nil))
		assert.Equal(t, domain.OutcomeRejected, sess.State.Outcome)
	})
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var entered, left []domain.StageID
	var outcomes []domain.Outcome
	hooks := domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, ev *domain.StageEvent) {
			assert.Equal(t, "hooks", ev.SessionID)
			entered = append(entered, ev.StageID)
		},
		OnStageLeave: func(_ context.Context, ev *domain.StageEvent) { left = append(left, ev.StageID) },
		OnOutcome:    func(_ context.Context, ev *domain.OutcomeEvent) { outcomes = append(outcomes, ev.Outcome) },
	}
	e := newEngine(t, runtime.WithLifecycleHooks(hooks))

	sess := e.Start(context.Background(), "hooks")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya"})
	complete(t, e, sess, map[string]any{"salary": 60})

	assert.Equal(t, []domain.StageID{domain.StageGreeting, domain.StageCollectName, domain.StageCollectSalary, domain.StageRejection}, entered)
	assert.Equal(t, []domain.StageID{domain.StageGreeting, domain.StageCollectName, domain.StageCollectSalary}, left)
	assert.Equal(t, []domain.Outcome{domain.OutcomeRejected}, outcomes)
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	e := newEngine(t)
	a := e.Start(context.Background(), "a")
	b := e.Start(context.Background(), "b")

	complete(t, e, a, nil)
	complete(t, e, a, map[string]any{"name": "Priya"})

	assert.Equal(t, domain.StageGreeting, b.Current)
	assert.Nil(t, b.State.Name)
}

func TestEngine_CustomThreshold(t *testing.T) {
	g, err := runtime.Compile(script.Default().WithThreshold(20))
	require.NoError(t, err)
	e := runtime.NewEngine(g)

	sess := e.Start(context.Background(), "custom")
	complete(t, e, sess, nil)
	complete(t, e, sess, map[string]any{"name": "Priya"})
	next := complete(t, e, sess, map[string]any{"salary": 30})
	assert.Equal(t, domain.StageRejection, next)
}
