package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter        EventType = "stage_enter"
	EventStageLeave        EventType = "stage_leave"
	EventExtractionFailure EventType = "extraction_failure"
	EventOutcome           EventType = "outcome"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StageEvent represents a session moving into or out of a stage.
type StageEvent struct {
	EventBase
	StageID StageID `json:"stage_id"`
}

// ExtractionEvent represents a rejected completion payload.
type ExtractionEvent struct {
	EventBase
	StageID StageID `json:"stage_id"`
	Field   string  `json:"field"`
	Reason  string  `json:"reason"`
	Attempt int     `json:"attempt"`
}

// OutcomeEvent represents the screening decision being made.
type OutcomeEvent struct {
	EventBase
	Outcome Outcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStageEnter        func(context.Context, *StageEvent)
	OnStageLeave        func(context.Context, *StageEvent)
	OnExtractionFailure func(context.Context, *ExtractionEvent)
	OnOutcome           func(context.Context, *OutcomeEvent)
}

// ComposeHooks fans every callback out to each of the given hook sets in order.
func ComposeHooks(sets ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *StageEvent) {
			for _, h := range sets {
				if h.OnStageEnter != nil {
					h.OnStageEnter(ctx, e)
				}
			}
		},
		OnStageLeave: func(ctx context.Context, e *StageEvent) {
			for _, h := range sets {
				if h.OnStageLeave != nil {
					h.OnStageLeave(ctx, e)
				}
			}
		},
		OnExtractionFailure: func(ctx context.Context, e *ExtractionEvent) {
			for _, h := range sets {
				if h.OnExtractionFailure != nil {
					h.OnExtractionFailure(ctx, e)
				}
			}
		},
		OnOutcome: func(ctx context.Context, e *OutcomeEvent) {
			for _, h := range sets {
				if h.OnOutcome != nil {
					h.OnOutcome(ctx, e)
				}
			}
		},
	}
}
