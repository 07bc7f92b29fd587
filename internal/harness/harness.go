package harness

import (
	"fmt"

	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/trial"
)

// Run scores a scenario and checks its expectations.
//
// The returned error covers scenarios that cannot be run at all (a bad
// similarity table). Scoring failures are part of the result and are
// matched against expect.error.
func Run(s *Scenario) (*Result, error) {
	table, err := s.Table()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	eng := scoring.New(table)

	t := trial.Trial{
		Paradigm:  s.Paradigm,
		Presented: s.PresentedSequence(),
		Response:  s.ResponseSequence(),
	}
	metrics, scoreErr := eng.Score(t)

	result := NewResult(s.Name)
	result.Metrics = metrics
	if scoreErr != nil {
		result.ScoreError = scoreErr.Error()
	}
	for _, e := range EvaluateExpect(s.Expect, metrics, scoreErr) {
		result.AddError(e.Error())
	}
	return result, nil
}

// RunAll runs scenarios in order. A scenario that cannot be run is recorded
// as failed rather than stopping the rest.
func RunAll(scenarios []*Scenario) *Summary {
	sum := &Summary{Results: make([]*Result, 0, len(scenarios))}
	for _, s := range scenarios {
		res, err := Run(s)
		if err != nil {
			res = NewResult(s.Name)
			res.AddError(err.Error())
		}
		sum.Results = append(sum.Results, res)
		sum.Total++
		if res.Pass {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// RunDir loads and runs every scenario in dir.
func RunDir(dir string) (*Summary, error) {
	scenarios, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return RunAll(scenarios), nil
}
