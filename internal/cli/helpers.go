package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/aretw0/screener/internal/logging"
	"github.com/aretw0/screener/pkg/domain"
)

// NewLogger configures the application logger on Stderr, away from the Stdout
// flow UI. Debug overrides the level; an empty or unknown level means warn.
func NewLogger(opts RunOptions) *slog.Logger {
	level := slog.LevelWarn
	if opts.LogLevel != "" {
		if parsed, err := logging.ParseLevel(opts.LogLevel); err == nil {
			level = parsed
		}
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, logging.Format(opts.LogFormat), level)
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Enter Stage", "session_id", e.SessionID, "stage", e.StageID)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Leave Stage", "session_id", e.SessionID, "stage", e.StageID)
		},
		OnExtractionFailure: func(ctx context.Context, e *domain.ExtractionEvent) {
			logger.Debug("Extraction Failed", "session_id", e.SessionID, "stage", e.StageID, "field", e.Field, "reason", e.Reason, "attempt", e.Attempt)
		},
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			logger.Debug("Outcome", "session_id", e.SessionID, "outcome", e.Outcome)
		},
	}
}
