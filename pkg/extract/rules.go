package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Rules is a deterministic, dictionary-based Extractor for English replies.
type Rules struct{}

// NewRules returns the rule-based extractor.
func NewRules() *Rules { return &Rules{} }

var _ Extractor = (*Rules)(nil)

// Lead-ins stripped before a name, longest first.
var namePrefixes = []string{
	"you can call me", "my full name is", "my name is", "my name's", "the name is",
	"the name's", "name is", "call me", "this is", "it's", "it’s", "it is", "i'm", "i’m", "i am", "im",
}

var fillers = map[string]bool{
	"hi": true, "hello": true, "hey": true, "sure": true, "yes": true, "yeah": true,
	"ok": true, "okay": true, "well": true, "so": true, "um": true, "uh": true,
}

const maxNameWords = 5

// Name extracts a person's name ("Hi, I'm priya sharma." -> "Priya Sharma").
func (r *Rules) Name(ctx context.Context, utterance string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s := strings.TrimSpace(utterance)
	for {
		word, rest, found := strings.Cut(s, " ")
		if !fillers[strings.ToLower(strings.Trim(word, ",.!"))] {
			break
		}
		if !found {
			s = ""
			break
		}
		s = strings.TrimLeft(rest, " ,.!")
	}
	lower := strings.ToLower(s)
	for _, p := range namePrefixes {
		if strings.HasPrefix(lower, p+" ") {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	if i := strings.IndexAny(s, ".,!?;"); i >= 0 {
		s = s[:i]
	}

	words := strings.Fields(s)
	if len(words) == 0 || len(words) > maxNameWords {
		return "", fmt.Errorf("name: %w", ErrNoMatch)
	}
	for i, w := range words {
		if strings.IndexFunc(w, unicode.IsLetter) < 0 {
			return "", fmt.Errorf("name: %w", ErrNoMatch)
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " "), nil
}

func capitalize(w string) string {
	for i, r := range w {
		if unicode.IsLetter(r) {
			if unicode.IsUpper(r) {
				return w
			}
			return w[:i] + string(unicode.ToUpper(r)) + w[i+len(string(r)):]
		}
	}
	return w
}

var (
	amountPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]+)?`)
	thousandsPattern = regexp.MustCompile(`(\d),(\d{2,3})`)
)

// Multipliers converting a unit to lakhs per annum.
var unitToLPA = map[string]float64{
	"lpa": 1, "l": 1, "lakh": 1, "lakhs": 1, "lac": 1, "lacs": 1,
	"cr": 100, "crore": 100, "crores": 100,
	"million": 10, "mn": 10,
	"k": 0.01, "thousand": 0.01,
	"rupees": 0.00001, "rs": 0.00001, "inr": 0.00001,
}

// Amounts without a unit above this are taken as rupees.
const rupeeCutoff = 1000

// Nouns after a number that mark it as something other than pay
// ("5 years of experience", "a team of 8 people").
var notPay = map[string]bool{
	"year": true, "years": true, "yr": true, "yrs": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true, "hour": true, "hours": true,
	"people": true, "person": true, "members": true, "member": true, "employees": true,
	"engineers": true, "projects": true, "percent": true, "times": true,
}

// Salary extracts an expectation in LPA ("30 LPA", "thirty lakhs",
// "25.5", "3,000,000 rupees", "1.2 crore").
func (r *Rules) Salary(ctx context.Context, utterance string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := strings.ToLower(utterance)
	for thousandsPattern.MatchString(s) {
		s = thousandsPattern.ReplaceAllString(s, "$1$2")
	}

	// Prefer an amount with a known unit ("5 years ... 30 lpa" -> 30), then
	// the last bare amount ("5 years of experience, so 60" -> 60).
	var m []string
	for _, candidate := range amountPattern.FindAllStringSubmatch(s, -1) {
		if notPay[candidate[2]] {
			continue
		}
		if _, ok := unitToLPA[candidate[2]]; ok {
			m = candidate
			break
		}
		m = candidate
	}
	if m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("salary: %w", ErrNoMatch)
		}
		return toLPA(v, m[2]), nil
	}

	if v, unit, ok := parseNumberWords(s); ok {
		return toLPA(v, unit), nil
	}
	return 0, fmt.Errorf("salary: %w", ErrNoMatch)
}

func toLPA(v float64, unit string) float64 {
	if mult, ok := unitToLPA[unit]; ok {
		return v * mult
	}
	if v > rupeeCutoff {
		return v * unitToLPA["rupees"]
	}
	return v
}

var smallNumbers = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40,
	"fifty": 50, "sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// parseNumberWords reads the first run of English number words and the word
// following it ("around forty five lakhs" -> 45, "lakhs"). Runs counting
// years, people and the like are skipped.
func parseNumberWords(s string) (float64, string, bool) {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '/'
	})

	var total float64
	seen := false
	for i, w := range words {
		switch {
		case smallNumbers[w] != 0 || w == "zero":
			total += smallNumbers[w]
			seen = true
		case w == "hundred" && seen:
			total *= 100
		case w == "and" && seen:
		case w == "half" && seen:
			total += 0.5
		case w == "a" && seen:
		default:
			if seen && notPay[w] {
				total, seen = 0, false
				continue
			}
			if seen {
				return total, w, true
			}
			continue
		}
		if i == len(words)-1 {
			return total, "", seen
		}
	}
	return total, "", seen
}

// Motivation keeps the whole reply; the only requirement is that it says something.
func (r *Rules) Motivation(ctx context.Context, utterance string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m := strings.Join(strings.Fields(utterance), " ")
	if strings.IndexFunc(m, unicode.IsLetter) < 0 {
		return "", fmt.Errorf("motivation: %w", ErrNoMatch)
	}
	return m, nil
}
