package domain

import "log/slog"

// Session is the explicit context of one interview.
// It is owned by the caller and must be driven sequentially.
type Session struct {
	ID      string         `json:"id"`
	Current StageID        `json:"current"`
	State   InterviewState `json:"state"`

	// History lists the visited stages in order, current stage included.
	History []StageID `json:"history"`

	// Attempts counts failed completions of the current stage.
	Attempts int `json:"attempts"`

	Logger *slog.Logger `json:"-"`
}

// NewSession creates a session positioned at the entry stage.
func NewSession(id string, entry StageID) *Session {
	return &Session{
		ID:      id,
		Current: entry,
		State:   NewInterviewState(),
		History: []StageID{entry},
	}
}

// Log returns the session logger, falling back to fallback when unset
// (sessions decoded from JSON carry no logger).
func (s *Session) Log(fallback *slog.Logger) *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	if fallback == nil {
		return slog.New(slog.DiscardHandler)
	}
	return fallback.With("session_id", s.ID)
}

// Clone returns a copy that shares no mutable memory with s.
func (s *Session) Clone() *Session {
	out := *s
	out.State = s.State.Clone()
	out.History = append([]StageID(nil), s.History...)
	return &out
}
