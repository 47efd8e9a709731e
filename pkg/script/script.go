package script

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/aretw0/screener/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScript []byte

// Script is the full content of an interview.
type Script struct {
	Company  string       `yaml:"company" json:"company"`
	Unit     string       `yaml:"unit" json:"unit"`
	Role     string       `yaml:"role" json:"role"`
	Reprompt string       `yaml:"reprompt,omitempty" json:"reprompt,omitempty"`
	Salary   SalaryPolicy `yaml:"salary" json:"salary"`

	Stages map[domain.StageID]StageScript `yaml:"stages" json:"stages"`
}

// SalaryPolicy sets the branch point. Minimum and Maximum are the range
// advertised to function-calling clients; the engine routes any amount.
type SalaryPolicy struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Minimum   float64 `yaml:"minimum" json:"minimum"`
	Maximum   float64 `yaml:"maximum" json:"maximum"`
}

// StageScript is the scripted content of a single stage.
type StageScript struct {
	Prompt   string    `yaml:"prompt" json:"prompt"`
	Function *Function `yaml:"function,omitempty" json:"function,omitempty"`
}

// Function describes the function-calling handler that completes a stage.
type Function struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Argument    string `yaml:"argument,omitempty" json:"argument,omitempty"`
}

// Default returns a fresh copy of the embedded screening script.
func Default() *Script {
	sc, err := Parse(defaultScript)
	if err != nil {
		panic(fmt.Sprintf("script: embedded default is invalid: %v", err))
	}
	return sc
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Marshal encodes the script back to YAML.
func (s *Script) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Stage returns the scripted content of id.
func (s *Script) Stage(id domain.StageID) (StageScript, bool) {
	st, ok := s.Stages[id]
	return st, ok
}

// Clone returns a deep copy of the script.
func (s *Script) Clone() *Script {
	out := *s
	out.Stages = make(map[domain.StageID]StageScript, len(s.Stages))
	for id, st := range s.Stages {
		if st.Function != nil {
			fn := *st.Function
			st.Function = &fn
		}
		out.Stages[id] = st
	}
	return &out
}

// WithThreshold returns a copy of the script with a different branch threshold.
func (s *Script) WithThreshold(threshold float64) *Script {
	out := s.Clone()
	out.Salary.Threshold = threshold
	return out
}
