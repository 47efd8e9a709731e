/*
Package script loads the interview script: the persona, the per-stage task
prompts, the function-calling schemas and the salary policy.

Scripts are YAML documents. Prompt, description and argument fields are Go
text/template sources rendered against the interview state, so they may
reference .Company, .Unit, .Threshold, .Name, .Salary and .Motivation.

	sc, err := script.Load("interview.yaml")
	if err != nil {
		return err
	}
	engine, err := screener.New(screener.WithScript(sc))

Default returns the embedded screening script.
*/
package script
