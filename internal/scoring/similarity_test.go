package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/trial"
)

func TestPairTableSymmetric(t *testing.T) {
	table := DefaultTable()
	for _, p := range DefaultPairs {
		assert.True(t, table.Similar(p[0], p[1]), "%s~%s", p[0], p[1])
		assert.True(t, table.Similar(p[1], p[0]), "%s~%s", p[1], p[0])
	}
	assert.False(t, table.Similar("B", "B"))
	assert.False(t, table.Similar("B", "Z"))
}

func TestPairTableNeighbours(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, []trial.Item{"P", "V"}, table.Neighbours("B"))
	assert.Equal(t, []trial.Item{"B", "F"}, table.Neighbours("V"))
	assert.Empty(t, table.Neighbours("Z"))
}

func TestPairTablePairs(t *testing.T) {
	table, err := NewPairTable([]Pair{{"P", "B"}, {"T", "D"}, {"B", "P"}})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"B", "P"}, {"D", "T"}}, table.Pairs())
}

func TestNewPairTableRejectsBadPairs(t *testing.T) {
	_, err := NewPairTable([]Pair{{"B", "B"}})
	assert.Error(t, err)

	_, err = NewPairTable([]Pair{{"", "B"}})
	assert.Error(t, err)
}

func TestNilPairTable(t *testing.T) {
	var table *PairTable
	assert.False(t, table.Similar("B", "P"))
	assert.Nil(t, table.Neighbours("B"))
	assert.Nil(t, table.Pairs())
}
