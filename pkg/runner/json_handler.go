package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/screener/pkg/domain"
)

// JSONHandler talks NDJSON, for voice bridges and scripted callers.
// Every Output call emits one line holding the action list; every reply is
// read as one line.
type JSONHandler struct {
	Reader       *bufio.Reader
	Writer       io.Writer
	Encoder      *json.Encoder
	MaxInputSize int
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:       bufio.NewReader(r),
		Writer:       w,
		Encoder:      json.NewEncoder(w),
		MaxInputSize: replyLimitFromEnv(),
	}
}

func (h *JSONHandler) Output(ctx context.Context, actions []domain.ActionRequest) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}
	if err := h.Encoder.Encode(actions); err != nil {
		return false, err
	}
	_, wantsReply := needsInput(actions)
	return wantsReply, nil
}

// utterance is the object form of a reply line.
type utterance struct {
	Text string `json:"text"`
}

// Input accepts a JSON string ("Priya"), an object ({"text": "Priya"}) or a
// raw line of text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := h.Reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		text := line
		var s string
		var obj utterance
		switch {
		case json.Unmarshal([]byte(line), &s) == nil:
			text = s
		case json.Unmarshal([]byte(line), &obj) == nil && obj.Text != "":
			text = obj.Text
		}
		return CleanReply(text, h.MaxInputSize)
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode([]domain.ActionRequest{{Type: domain.ActionSystemMessage, Payload: msg}})
}
