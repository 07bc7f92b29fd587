package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/trial"
)

func TestNormalizeFree(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"upper", "BDG", "BDG"},
		{"lower", "bdg", "BDG"},
		{"spaces", " b d g ", "BDG"},
		{"punctuation dropped", "b,d-g?1", "BDG"},
		{"full width", "\uff22\uff24\uff27", "BDG"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFree(tt.raw).String())
		})
	}
}

func TestNormalizeSerial(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"upper", "bdg", "BDG"},
		{"unsure kept", "b?g", "B?G"},
		{"whitespace removed", " b d\tg ", "BDG"},
		{"embedded tab takes no position", "b\tg", "BG"},
		{"full width", "\uff42\uff1f\uff47", "B?G"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSerial(tt.raw).String())
		})
	}
}

func TestNormalizeDispatch(t *testing.T) {
	assert.Equal(t, "BG", Normalize(trial.ParadigmFree, "b?g").String())
	assert.Equal(t, "B?G", Normalize(trial.ParadigmSerial, "b?g").String())
}

func TestFitSerial(t *testing.T) {
	presented := trial.ParseSequence("BDGK")

	got, dropped := FitSerial(presented, trial.ParseSequence("BDGKL"))
	assert.True(t, dropped)
	assert.Equal(t, "BDGK", got.String())

	got, dropped = FitSerial(presented, trial.ParseSequence("BD"))
	assert.False(t, dropped)
	assert.Equal(t, "BD", got.String())

	// The engine still refuses the untrimmed response.
	_, err := New(nil).Serial(presented, trial.ParseSequence("BDGKL"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	m, err := New(nil).Serial(presented, got)
	require.NoError(t, err)
	assert.Equal(t, "1100", m.Binary())
}
