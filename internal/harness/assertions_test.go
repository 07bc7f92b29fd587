package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/trial"
)

func TestEvaluateExpect_SkipsUnsetFields(t *testing.T) {
	m := trial.Metrics{Free: &trial.FreeMetrics{NCorrect: 2, ProportionCorrect: 0.5, PhonologicalConfusions: 1}}
	assert.Empty(t, EvaluateExpect(Expect{NCorrect: intp(2)}, m, nil))
}

func TestEvaluateExpect_WrongErrorKind(t *testing.T) {
	errs := EvaluateExpect(Expect{Error: ErrorInvalidInput}, trial.Metrics{}, errors.New("disk on fire"))
	assert.Len(t, errs, 1)

	wrapped := fmt.Errorf("score: %w", scoring.ErrInvalidInput)
	assert.Empty(t, EvaluateExpect(Expect{Error: ErrorInvalidInput}, trial.Metrics{}, wrapped))
}

func TestAssertionErrorMessage(t *testing.T) {
	err := checkInt("n_correct", intp(3), 2)
	var ae *AssertionError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, "n_correct: expected 3, got 2", err.Error())
	assert.NoError(t, checkInt("n_correct", nil, 2))
}
