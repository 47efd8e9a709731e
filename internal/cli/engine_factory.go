package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
)

// NewEngine initializes a screener engine with standard CLI conventions.
// Extra hooks are composed after the debug hooks.
func NewEngine(opts RunOptions, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*screener.Engine, error) {
	engineOpts := []screener.Option{screener.WithLogger(logger)}

	if opts.Debug {
		hooks = append([]domain.LifecycleHooks{createDebugHooks(logger)}, hooks...)
	}
	if len(hooks) > 0 {
		engineOpts = append(engineOpts, screener.WithLifecycleHooks(domain.ComposeHooks(hooks...)))
	}

	if opts.ScriptPath != "" {
		sc, err := script.Load(opts.ScriptPath)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, screener.WithScript(sc))
	}
	if opts.SalaryThreshold != nil {
		engineOpts = append(engineOpts, screener.WithSalaryThreshold(*opts.SalaryThreshold))
	}

	engine, err := screener.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
