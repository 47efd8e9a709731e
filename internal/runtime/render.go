package runtime

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
)

// PromptData is the view of a session that prompt templates render against.
// Uncollected fields render as empty strings.
type PromptData struct {
	Company    string
	Unit       string
	Threshold  string
	Name       string
	Salary     string
	Motivation string
}

// NewPromptData flattens the script constants and the interview state.
func NewPromptData(sc *script.Script, state domain.InterviewState) PromptData {
	var d PromptData
	if sc != nil {
		d.Company = sc.Company
		d.Unit = sc.Unit
		d.Threshold = FormatAmount(sc.Salary.Threshold)
	}
	if state.Name != nil {
		d.Name = *state.Name
	}
	if state.Salary != nil {
		d.Salary = FormatAmount(*state.Salary)
	}
	if state.Motivation != nil {
		d.Motivation = *state.Motivation
	}
	return d
}

// FormatAmount prints a salary without trailing zeros (30, 45.5).
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render executes an ad-hoc template source, such as a function description
// or the role message, against the given data.
func Render(src string, data PromptData) (string, error) {
	if src == "" {
		return "", nil
	}
	tmpl, err := template.New("text").Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	return execute(tmpl, data)
}

func (g *Graph) renderPrompt(id domain.StageID, state domain.InterviewState) (string, error) {
	tmpl, ok := g.prompts[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownStage, id)
	}
	return execute(tmpl, NewPromptData(g.script, state))
}

func execute(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering failed during interpolation: %w", err)
	}
	return buf.String(), nil
}
