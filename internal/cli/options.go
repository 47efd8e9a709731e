package cli

import (
	"github.com/aretw0/screener/internal/config"
)

// RunOptions contains all the configuration shared by the commands.
type RunOptions struct {
	ScriptPath      string
	SalaryThreshold *float64
	Headless        bool
	JSON            bool
	Debug           bool
	LogFormat       string
	LogLevel        string
	SessionID       string
	MaxAttempts     int
	MaxInputSize    int
}

// OptionsFromConfig seeds RunOptions from the environment configuration.
// Command flags are applied on top by the caller.
func OptionsFromConfig(cfg *config.Config) RunOptions {
	return RunOptions{
		ScriptPath:      cfg.Script,
		SalaryThreshold: cfg.SalaryThreshold,
		Debug:           cfg.Debug,
		LogFormat:       cfg.LogFormat,
		LogLevel:        cfg.LogLevel,
		MaxAttempts:     cfg.MaxAttempts,
		MaxInputSize:    cfg.MaxInputSize,
	}
}
