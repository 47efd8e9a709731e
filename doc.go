/*
Package screener is a scripted flow engine for automated HR screening interviews.

It models the interview as a small directed graph of stages (greeting, name,
salary, motivation, resolution or rejection, closing) with a single
data-dependent branch: a salary expectation above the threshold ends the
interview politely, anything at or below it continues to the motivation
question.

# Concept

The engine does no speech, inference or transport. A host (a voice engine,
an LLM function-calling loop, the bundled CLI runner or the HTTP and MCP
adapters) asks the engine for the current stage's prompt, collects the
candidate's reply, extracts structured data from it and hands that data back.
The engine validates it, updates the interview state and picks the next stage.

	Enter(session, stage)          -> prompt (no side effects)
	Complete(session, stage, data) -> next stage, or *domain.ExtractionError

A failed extraction keeps the session on the same stage, so the host simply
re-prompts.

# Usage

	eng, err := screener.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sess := eng.NewSession(ctx, "")

	prompt, _ := eng.Enter(ctx, sess, sess.Current)
	fmt.Println(prompt)

	next, err := eng.Complete(ctx, sess, sess.Current, nil)

The transition table is pure data, the session is an explicit value owned by
the caller, and extraction is a capability injected by the host (see
package extract), so every part can be exercised without any I/O.
*/
package screener
