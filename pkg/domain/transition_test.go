package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salaryState(v float64) domain.InterviewState {
	s := domain.NewInterviewState()
	s.Salary = &v
	return s
}

func TestTransition_Next(t *testing.T) {
	branch := domain.Transition{Branch: &domain.Branch{
		Threshold: 50,
		Above:     domain.StageRejection,
		AtOrBelow: domain.StageMotivation,
	}}

	tests := []struct {
		name   string
		salary float64
		want   domain.StageID
	}{
		{"well below", 10, domain.StageMotivation},
		{"just below", 49.99, domain.StageMotivation},
		{"exactly at threshold", 50, domain.StageMotivation},
		{"just above", 50.01, domain.StageRejection},
		{"well above", 120, domain.StageRejection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := branch.Next(salaryState(tt.salary))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("branch without salary is a graph error", func(t *testing.T) {
		_, err := branch.Next(domain.NewInterviewState())
		assert.ErrorIs(t, err, domain.ErrInvalidGraph)
	})

	t.Run("branch on another field is a graph error", func(t *testing.T) {
		tr := domain.Transition{Branch: &domain.Branch{Field: "name", Threshold: 50}}
		_, err := tr.Next(salaryState(10))
		assert.ErrorIs(t, err, domain.ErrInvalidGraph)
	})

	t.Run("default transition ignores state", func(t *testing.T) {
		got, err := domain.Transition{Default: domain.StageClosing}.Next(domain.NewInterviewState())
		require.NoError(t, err)
		assert.Equal(t, domain.StageClosing, got)
	})

	t.Run("zero transition is terminal", func(t *testing.T) {
		tr := domain.Transition{}
		assert.True(t, tr.IsZero())
		assert.Empty(t, tr.Targets())
		_, err := tr.Next(domain.NewInterviewState())
		assert.ErrorIs(t, err, domain.ErrTerminalStage)
	})
}

func TestTransition_Targets(t *testing.T) {
	tr := domain.Transition{Branch: &domain.Branch{Above: domain.StageRejection, AtOrBelow: domain.StageMotivation}}
	assert.ElementsMatch(t, []domain.StageID{domain.StageRejection, domain.StageMotivation}, tr.Targets())
}

func TestParseStageID(t *testing.T) {
	id, err := domain.ParseStageID("collect_salary")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCollectSalary, id)

	_, err = domain.ParseStageID("salary")
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}

func TestInterviewState_CloneDoesNotAlias(t *testing.T) {
	name := "Priya"
	orig := salaryState(30)
	orig.Name = &name

	cp := orig.Clone()
	*cp.Name = "Someone else"
	*cp.Salary = 99

	assert.Equal(t, "Priya", *orig.Name)
	assert.Equal(t, 30.0, *orig.Salary)
	assert.Nil(t, cp.Motivation)
}

func TestExtractionError(t *testing.T) {
	err := &domain.ExtractionError{Stage: domain.StageCollectSalary, Field: "salary", Reason: "not a number"}
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "collect_salary")
	assert.Contains(t, err.Error(), "not a number")
}

func TestComposeHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnStageEnter: func(_ context.Context, e *domain.StageEvent) { calls = append(calls, "a:"+string(e.StageID)) }}
	b := domain.LifecycleHooks{OnStageEnter: func(_ context.Context, e *domain.StageEvent) { calls = append(calls, "b:"+string(e.StageID)) }}

	hooks := domain.ComposeHooks(a, b)
	hooks.OnStageEnter(context.Background(), &domain.StageEvent{StageID: domain.StageGreeting})
	hooks.OnOutcome(context.Background(), &domain.OutcomeEvent{Outcome: domain.OutcomeAccepted})

	assert.Equal(t, []string{"a:greeting", "b:greeting"}, calls)
}
