package harness

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/trial"
)

// AssertionError is a single mismatched expectation.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// roundProportion renders a proportion at CSV precision.
func roundProportion(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func checkInt(field string, want *int, got int) error {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{Field: field, Expected: strconv.Itoa(*want), Actual: strconv.Itoa(got)}
}

func checkProportion(field string, want *float64, got float64) error {
	if want == nil {
		return nil
	}
	w, g := roundProportion(*want), roundProportion(got)
	if w == g {
		return nil
	}
	return &AssertionError{Field: field, Expected: w, Actual: g}
}

func checkString(field string, want *string, got string) error {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{Field: field, Expected: strconv.Quote(*want), Actual: strconv.Quote(got)}
}

// EvaluateExpect compares the outcome of scoring against exp. scoreErr is
// the error returned by the engine, if any.
func EvaluateExpect(exp Expect, m trial.Metrics, scoreErr error) []error {
	if exp.Error != "" {
		if scoreErr == nil {
			return []error{&AssertionError{Field: "error", Expected: exp.Error, Actual: "no error"}}
		}
		if exp.Error == ErrorInvalidInput && !errors.Is(scoreErr, scoring.ErrInvalidInput) {
			return []error{&AssertionError{Field: "error", Expected: exp.Error, Actual: scoreErr.Error()}}
		}
		return nil
	}
	if scoreErr != nil {
		return []error{&AssertionError{Field: "error", Expected: "no error", Actual: scoreErr.Error()}}
	}

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if f := m.Free; f != nil {
		add(checkInt("n_correct", exp.NCorrect, f.NCorrect))
		add(checkProportion("proportion_correct", exp.ProportionCorrect, f.ProportionCorrect))
		add(checkInt("phonological_confusions", exp.PhonologicalConfusions, f.PhonologicalConfusions))
	}
	if s := m.Serial; s != nil {
		add(checkString("per_position_binary", exp.PerPositionBinary, s.Binary()))
		add(checkProportion("proportion_correct_in_position", exp.ProportionCorrectInPosition, s.ProportionCorrectInPosition))
	}
	return errs
}
