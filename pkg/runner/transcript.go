package runner

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultReplyLimit bounds a cleaned reply, in characters. A minute of
	// speech transcribes to roughly a thousand.
	DefaultReplyLimit = 4096
	// EnvMaxInputSize overrides DefaultReplyLimit.
	EnvMaxInputSize = "SCREENER_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("reply exceeds maximum allowed length")
	ErrInvalidUTF8   = errors.New("reply contains invalid UTF-8 sequences")
)

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	fillers    = map[string]bool{"um": true, "umm": true, "uh": true, "uhh": true, "erm": true, "hmm": true, "mm": true}
)

// CleanReply turns a typed or transcribed candidate reply into a single line
// for extraction. Terminal escapes and control characters are removed,
// hesitation fillers ("um", "uh") are dropped and whitespace runs collapse to
// one space. Replies longer than limit characters after cleaning are rejected,
// never truncated. A non-positive limit falls back to DefaultReplyLimit.
func CleanReply(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultReplyLimit
	}
	if len(text) > limit*utf8.UTFMax {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, utf8.RuneCountInString(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}

	text = ansiEscape.ReplaceAllString(text, "")
	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	kept := words[:0]
	for _, w := range words {
		if fillers[strings.ToLower(strings.TrimRight(w, ",.…"))] {
			continue
		}
		kept = append(kept, w)
	}
	clean := strings.Join(kept, " ")

	if n := utf8.RuneCountInString(clean); n > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, limit)
	}
	return clean, nil
}

func replyLimitFromEnv() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultReplyLimit
}
