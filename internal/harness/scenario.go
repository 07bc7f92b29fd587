package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/trial"
)

// Scenario is one scoring conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Paradigm trial.Paradigm `yaml:"paradigm"`

	// Presented and Response hold one item per character.
	Presented string `yaml:"presented"`
	Response  string `yaml:"response"`

	// Normalize treats Response as raw typed input.
	Normalize bool `yaml:"normalize,omitempty"`

	// SimilarityPairs replaces the default confusion table when set.
	SimilarityPairs [][]string `yaml:"similarity_pairs,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect lists the metrics a scenario must produce. Nil fields are not
// checked.
type Expect struct {
	NCorrect                    *int     `yaml:"n_correct,omitempty"`
	ProportionCorrect           *float64 `yaml:"proportion_correct,omitempty"`
	PhonologicalConfusions      *int     `yaml:"phonological_confusions,omitempty"`
	PerPositionBinary           *string  `yaml:"per_position_binary,omitempty"`
	ProportionCorrectInPosition *float64 `yaml:"proportion_correct_in_position,omitempty"`

	// Error names the expected failure. Only ErrorInvalidInput is defined.
	Error string `yaml:"error,omitempty"`
}

// ErrorInvalidInput is the expect.error value for scoring.ErrInvalidInput.
const ErrorInvalidInput = "invalid_input"

func (e Expect) empty() bool {
	return e.NCorrect == nil && e.ProportionCorrect == nil && e.PhonologicalConfusions == nil &&
		e.PerPositionBinary == nil && e.ProportionCorrectInPosition == nil && e.Error == ""
}

func (e Expect) hasFree() bool {
	return e.NCorrect != nil || e.ProportionCorrect != nil || e.PhonologicalConfusions != nil
}

func (e Expect) hasSerial() bool {
	return e.PerPositionBinary != nil || e.ProportionCorrectInPosition != nil
}

// PresentedSequence returns the presented list.
func (s *Scenario) PresentedSequence() trial.Sequence {
	return trial.ParseSequence(s.Presented)
}

// ResponseSequence returns the response, normalized when requested.
func (s *Scenario) ResponseSequence() trial.Sequence {
	if s.Normalize {
		return scoring.Normalize(s.Paradigm, s.Response)
	}
	return trial.ParseSequence(s.Response)
}

// Table returns the similarity table the scenario scores with.
func (s *Scenario) Table() (*scoring.PairTable, error) {
	if len(s.SimilarityPairs) == 0 {
		return scoring.DefaultTable(), nil
	}
	pairs := make([]scoring.Pair, len(s.SimilarityPairs))
	for i, p := range s.SimilarityPairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("similarity_pairs[%d]: want 2 items, got %d", i, len(p))
		}
		pairs[i] = scoring.Pair{trial.Item(p[0]), trial.Item(p[1])}
	}
	return scoring.NewPairTable(pairs)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// ParseScenario decodes a scenario with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject typos like "expects:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
// Duplicate scenario names are rejected.
func LoadDir(dir string) ([]*Scenario, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	seen := make(map[string]string, len(files))
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s",
				s.Name, filepath.Base(prev), filepath.Base(f))
		}
		seen[s.Name] = f
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !s.Paradigm.Valid() {
		return fmt.Errorf("paradigm must be free_recall or serial_recall, got %q", s.Paradigm)
	}
	if s.Expect.empty() {
		return fmt.Errorf("expect must name at least one metric or an error")
	}
	if s.Expect.Error != "" {
		if s.Expect.Error != ErrorInvalidInput {
			return fmt.Errorf("expect.error: unknown error %q", s.Expect.Error)
		}
		if s.Expect.hasFree() || s.Expect.hasSerial() {
			return fmt.Errorf("expect.error cannot be combined with metrics")
		}
	}
	switch s.Paradigm {
	case trial.ParadigmFree:
		if s.Expect.hasSerial() {
			return fmt.Errorf("expect: serial metrics on a free_recall scenario")
		}
	case trial.ParadigmSerial:
		if s.Expect.hasFree() {
			return fmt.Errorf("expect: free metrics on a serial_recall scenario")
		}
	}
	if _, err := s.Table(); err != nil {
		return err
	}
	return nil
}
