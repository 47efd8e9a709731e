package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/internal/presentation/tui"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/runner"
)

// RunSession runs one interview over in/out until it finishes or the input ends.
func RunSession(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) (*domain.Session, error) {
	logger := NewLogger(opts)

	engine, err := NewEngine(opts, logger)
	if err != nil {
		return nil, err
	}

	rich := !opts.JSON && !opts.Headless
	if rich {
		tui.PrintBanner(out, engine.Script().Company, screener.Version)
	}

	reprompt, err := engine.RenderText(engine.Script().Reprompt, nil)
	if err != nil {
		return nil, err
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithMaxAttempts(opts.MaxAttempts),
		runner.WithReprompt(reprompt),
		runner.WithInputHandler(newHandler(opts, in, out)),
	}

	sess, runErr := runner.NewRunner(runnerOpts...).Run(ctx, engine, nil)
	if rich && sess != nil {
		tui.PrintOutcome(out, sess)
	}
	return sess, handleExecutionError(runErr)
}

func newHandler(opts RunOptions, in io.Reader, out io.Writer) runner.IOHandler {
	if opts.JSON {
		h := runner.NewJSONHandler(in, out)
		if opts.MaxInputSize > 0 {
			h.MaxInputSize = opts.MaxInputSize
		}
		return h
	}

	var textOpts []runner.TextHandlerOption
	if opts.MaxInputSize > 0 {
		textOpts = append(textOpts, runner.WithTextHandlerMaxInputSize(opts.MaxInputSize))
	}
	if f, ok := out.(*os.File); ok && !opts.Headless && tui.IsTerminal(f) {
		textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}
	return runner.NewTextHandler(in, out, textOpts...)
}

// handleExecutionError treats an interrupted interview as a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, domain.ErrAttemptsExhausted) {
		return fmt.Errorf("interview stopped: %w", err)
	}
	return err
}
