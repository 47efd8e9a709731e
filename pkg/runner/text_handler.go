package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/screener/pkg/domain"
)

// replyCue marks the point where the candidate answers.
const replyCue = "you> "

// TextHandler is a terminal conversation: prompts are printed, one line typed
// by the candidate is one reply.
type TextHandler struct {
	out    io.Writer
	render ContentRenderer
	limit  int

	scanner *bufio.Scanner
	replies chan reply
	once    sync.Once
}

type reply struct {
	text string
	err  error
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer formats prompts before they are printed.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.render = renderer
	}
}

// WithTextHandlerMaxInputSize overrides the reply length limit.
func WithTextHandlerMaxInputSize(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.limit = n
	}
}

// NewTextHandler reads replies from r and prints the interviewer's side to w.
// Nil arguments fall back to Stdin and Stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		out:     w,
		limit:   replyLimitFromEnv(),
		scanner: bufio.NewScanner(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	// Oversized lines must reach CleanReply to be refused, not stop the scanner.
	h.scanner.Buffer(make([]byte, 0, 4096), h.limit*4+1024)
	return h
}

// listen reads lines on a goroutine so Input can give up when ctx ends.
func (h *TextHandler) listen() {
	h.once.Do(func() {
		h.replies = make(chan reply)
		go func() {
			defer close(h.replies)
			for h.scanner.Scan() {
				h.replies <- reply{text: h.scanner.Text()}
			}
			if err := h.scanner.Err(); err != nil {
				h.replies <- reply{err: err}
			}
		}()
	})
}

func (h *TextHandler) Output(ctx context.Context, actions []domain.ActionRequest) (bool, error) {
	expectsReply := false
	for _, act := range actions {
		switch payload := act.Payload.(type) {
		case domain.PromptPayload:
			if err := h.say(payload.Text); err != nil {
				return false, err
			}
		case string:
			if act.Type == domain.ActionSystemMessage {
				if err := h.SystemOutput(ctx, payload); err != nil {
					return false, err
				}
			}
		}
		if act.Type == domain.ActionRequestInput {
			expectsReply = true
		}
	}
	return expectsReply, nil
}

func (h *TextHandler) say(text string) error {
	if h.render != nil {
		if rendered, err := h.render(text); err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(h.out, strings.TrimSpace(text))
	return err
}

// Input returns the next non-blank reply. Replies CleanReply refuses are
// reported to the candidate and skipped.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.listen()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(h.out, replyCue)

		var r reply
		var ok bool
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r, ok = <-h.replies:
		}
		switch {
		case !ok:
			return "", io.EOF
		case r.err != nil:
			return "", r.err
		}

		text, err := CleanReply(r.text, h.limit)
		if err != nil {
			fmt.Fprintf(h.out, "(%v, please answer again)\n", err)
			continue
		}
		if text != "" {
			return text, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.out, "(%s)\n", msg)
	return err
}
