package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrScriptExhausted is returned once a Scripted extractor has no replies left.
var ErrScriptExhausted = errors.New("scripted extractor has no replies left")

// Reply is one canned extraction result.
type Reply struct {
	Value any
	Err   error
}

// Value is a successful reply.
func Value(v any) Reply { return Reply{Value: v} }

// Miss is a reply that finds nothing.
func Miss() Reply { return Reply{Err: ErrNoMatch} }

// Scripted replays canned results in order, regardless of the utterance.
// It is safe for concurrent use.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	heard   []string
}

var _ Extractor = (*Scripted)(nil)

// NewScripted returns an extractor that answers with replies in order.
func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Heard returns every utterance the extractor was asked about.
func (s *Scripted) Heard() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.heard...)
}

func (s *Scripted) next(utterance string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heard = append(s.heard, utterance)
	if len(s.replies) == 0 {
		return Reply{}, ErrScriptExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, r.Err
}

func (s *Scripted) Name(_ context.Context, utterance string) (string, error) {
	r, err := s.next(utterance)
	if err != nil {
		return "", err
	}
	v, ok := r.Value.(string)
	if !ok {
		return "", fmt.Errorf("name: scripted %T: %w", r.Value, ErrNoMatch)
	}
	return v, nil
}

func (s *Scripted) Salary(_ context.Context, utterance string) (float64, error) {
	r, err := s.next(utterance)
	if err != nil {
		return 0, err
	}
	switch v := r.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("salary: scripted %T: %w", r.Value, ErrNoMatch)
	}
}

func (s *Scripted) Motivation(_ context.Context, utterance string) (string, error) {
	r, err := s.next(utterance)
	if err != nil {
		return "", err
	}
	v, ok := r.Value.(string)
	if !ok {
		return "", fmt.Errorf("motivation: scripted %T: %w", r.Value, ErrNoMatch)
	}
	return v, nil
}
