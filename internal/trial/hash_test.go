package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialIDDeterminism(t *testing.T) {
	presented := ParseSequence("BDGK")
	response := ParseSequence("BDKG")

	id1, err := TrialID("session-1", 1, ParadigmSerial, presented, response)
	require.NoError(t, err)

	id2, err := TrialID("session-1", 1, ParadigmSerial, presented, response)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "TrialID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestTrialIDChangesWithInput(t *testing.T) {
	presented := ParseSequence("ABCD")
	response := ParseSequence("BACD")

	base := MustTrialID("session-1", 1, ParadigmFree, presented, response)

	assert.NotEqual(t, base, MustTrialID("session-2", 1, ParadigmFree, presented, response), "different session")
	assert.NotEqual(t, base, MustTrialID("session-1", 2, ParadigmFree, presented, response), "different index")
	assert.NotEqual(t, base, MustTrialID("session-1", 1, ParadigmSerial, presented, response), "different paradigm")
	assert.NotEqual(t, base, MustTrialID("session-1", 1, ParadigmFree, ParseSequence("ABCE"), response), "different presented")
	assert.NotEqual(t, base, MustTrialID("session-1", 1, ParadigmFree, presented, ParseSequence("ABCD")), "different response")
}

func TestTrialIDEmptyResponse(t *testing.T) {
	id, err := TrialID("session-1", 1, ParadigmFree, ParseSequence("ABC"), Sequence{})
	require.NoError(t, err)
	assert.Len(t, id, 64)
}

func TestAssignID(t *testing.T) {
	tr := Trial{
		SessionID: "session-1",
		Index:     3,
		Paradigm:  ParadigmSerial,
		Presented: ParseSequence("BDG"),
		Response:  ParseSequence("B?G"),
	}
	require.NoError(t, tr.AssignID())
	assert.Equal(t, MustTrialID("session-1", 3, ParadigmSerial, tr.Presented, tr.Response), tr.ID)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain("recall/trial/v1", data), hashWithDomain("recall/trial/v2", data))
}
