package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/recall/internal/trial"
)

// Snapshot is the canonical form of a scenario's outcome. Proportions are
// strings at CSV precision because canonical JSON forbids floats.
func Snapshot(s *Scenario, r *Result) map[string]any {
	snap := map[string]any{
		"name":      s.Name,
		"paradigm":  s.Paradigm,
		"presented": s.PresentedSequence(),
		"response":  s.ResponseSequence(),
		"pass":      r.Pass,
	}
	if r.ScoreError != "" {
		snap["error"] = r.ScoreError
	}
	if f := r.Metrics.Free; f != nil {
		snap["free"] = map[string]any{
			"n_correct":               f.NCorrect,
			"proportion_correct":      roundProportion(f.ProportionCorrect),
			"phonological_confusions": f.PhonologicalConfusions,
		}
	}
	if m := r.Metrics.Serial; m != nil {
		snap["serial"] = map[string]any{
			"per_position_binary":            m.Binary(),
			"proportion_correct_in_position": roundProportion(m.ProportionCorrectInPosition),
		}
	}
	return snap
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := trial.MarshalCanonical(Snapshot(scenario, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
