/*
Package runner implements the single-session host loop for the screener engine.

It acts as the bridge between the interview engine and the outside world: it
renders the current stage, collects the candidate's reply through a pluggable
IOHandler, turns the reply into structured data with an extract.Extractor and
submits it. Failed extractions are re-prompted on the same stage.

# Key Components

  - Runner: The loop itself (Render -> Output -> Input -> Extract -> Complete).
  - IOHandler: Decouples how prompts are shown and replies are read (text, NDJSON).
  - TextHandler: Interactive CLI usage.
  - JSONHandler: Structured JSON-Lines for scripting and integration tests.

# Usage

	eng, _ := screener.New()
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithExtractor(extract.NewRules()),
	)

	sess, err := r.Run(ctx, eng, nil)
*/
package runner
