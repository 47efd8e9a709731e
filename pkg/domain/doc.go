/*
Package domain contains the core domain models of the screener interview flow.

It defines the entities of the interview state machine: the stages of the
script, the transition table that links them, the data collected from the
candidate and the session that carries it all. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Stage: A node in the interview graph (prompt template, expected data, transition).
  - Transition: Pure data describing where a stage goes next, optionally branching on salary.
  - InterviewState: The candidate data collected so far and the screening outcome.
  - Session: The explicit context object owned by the caller (current stage, state, history).
  - ActionRequest: A structural representation of what the host should render or collect.
*/
package domain
