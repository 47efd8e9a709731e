package script_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/aretw0/screener/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	sc := script.Default()

	assert.Equal(t, "Commotion", sc.Company)
	assert.Equal(t, "LPA", sc.Unit)
	assert.Equal(t, 50.0, sc.Salary.Threshold)
	assert.Equal(t, 1.0, sc.Salary.Minimum)
	assert.Equal(t, 200.0, sc.Salary.Maximum)

	for _, id := range domain.StageOrder {
		st, ok := sc.Stage(id)
		require.True(t, ok, "stage %s missing", id)
		assert.NotEmpty(t, st.Prompt, "stage %s", id)
	}

	salary, _ := sc.Stage(domain.StageCollectSalary)
	require.NotNil(t, salary.Function)
	assert.Equal(t, "collect_salary", salary.Function.Name)

	closing, _ := sc.Stage(domain.StageClosing)
	assert.Nil(t, closing.Function)
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := script.Default()
	a.Company = "Other"
	assert.Equal(t, "Commotion", script.Default().Company)
}

func TestRoundTrip(t *testing.T) {
	sc := script.Default()
	data, err := sc.Marshal()
	require.NoError(t, err)

	back, err := script.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, sc, back)
}

func TestLoad(t *testing.T) {
	data, err := script.Default().WithThreshold(40).Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "interview.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	sc, err := script.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40.0, sc.Salary.Threshold)

	_, err = script.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWithThreshold_DoesNotMutateReceiver(t *testing.T) {
	sc := script.Default()
	other := sc.WithThreshold(80)
	assert.Equal(t, 50.0, sc.Salary.Threshold)
	assert.Equal(t, 80.0, other.Salary.Threshold)

	other.Stages[domain.StageGreeting].Function.Name = "changed"
	assert.Equal(t, "start_interview", sc.Stages[domain.StageGreeting].Function.Name)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*script.Script)
		wantKey string
	}{
		{"missing company", func(s *script.Script) { s.Company = "" }, "company"},
		{"missing stage", func(s *script.Script) { delete(s.Stages, domain.StageMotivation) }, "stages.motivation"},
		{"unknown stage", func(s *script.Script) { s.Stages["small_talk"] = script.StageScript{Prompt: "hi"} }, "stages.small_talk"},
		{"broken template", func(s *script.Script) {
			st := s.Stages[domain.StageClosing]
			st.Prompt = "Bye {{.Name"
			s.Stages[domain.StageClosing] = st
		}, "stages.closing.prompt"},
		{"function on terminal stage", func(s *script.Script) {
			st := s.Stages[domain.StageClosing]
			st.Function = &script.Function{Name: "hang_up"}
			s.Stages[domain.StageClosing] = st
		}, "stages.closing.function"},
		{"missing function", func(s *script.Script) {
			st := s.Stages[domain.StageCollectName]
			st.Function = nil
			s.Stages[domain.StageCollectName] = st
		}, "stages.collect_name.function.name"},
		{"threshold out of bounds", func(s *script.Script) { s.Salary.Threshold = 500 }, "salary.threshold"},
		{"inverted bounds", func(s *script.Script) { s.Salary.Maximum = 0.5 }, "salary.maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := script.Default()
			tt.mutate(sc)

			err := sc.Validate()
			require.Error(t, err)

			var keys []string
			for _, e := range script.ValidationErrors(err) {
				var ve *script.ValidationError
				require.ErrorAs(t, e, &ve)
				keys = append(keys, ve.Key)
			}
			assert.Contains(t, keys, tt.wantKey)
		})
	}
}

func TestCheckTemplates(t *testing.T) {
	type promptData struct {
		Company, Unit, Threshold, Name, Salary, Motivation string
	}
	require.NoError(t, script.Default().CheckTemplates(promptData{}))

	sc := script.Default()
	st := sc.Stages[domain.StageGreeting]
	st.Prompt = "Hello {{.Candidate}}"
	sc.Stages[domain.StageGreeting] = st
	sc.Reprompt = "Sorry {{.Name"
	require.Error(t, sc.Validate(), "parsing alone catches the broken reprompt")

	err := sc.CheckTemplates(promptData{})
	require.Error(t, err)

	var keys []string
	for _, e := range script.ValidationErrors(err) {
		var ve *script.ValidationError
		require.ErrorAs(t, e, &ve)
		keys = append(keys, ve.Key)
	}
	assert.ElementsMatch(t, []string{"stages.greeting.prompt", "reprompt"}, keys)
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := script.Parse([]byte("company: [unterminated"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to parse script"))
}
