package stimulus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/trial"
)

func inPool(pool trial.Sequence, list trial.Sequence) bool {
	for _, it := range list {
		if !pool.Contains(it) {
			return false
		}
	}
	return true
}

func TestMixedPoolIsSortedUnion(t *testing.T) {
	assert.Equal(t, "BDGHKLMNPQRTVYZ", MixedPool.String())
}

func TestPoolFor(t *testing.T) {
	p, err := PoolFor(SimilaritySimilar)
	require.NoError(t, err)
	assert.Equal(t, SimilarPool, p)

	p, err = PoolFor("")
	require.NoError(t, err)
	assert.Equal(t, MixedPool, p)

	_, err = PoolFor("loud")
	assert.Error(t, err)
}

func TestFreeListLengthAndPool(t *testing.T) {
	g := NewGenerator(42)
	for _, sim := range []Similarity{SimilarityMixed, SimilaritySimilar, SimilarityDissimilar} {
		pool, _ := PoolFor(sim)
		for i := 0; i < 100; i++ {
			list, err := g.FreeList(sim)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(list), FreeListMin)
			assert.LessOrEqual(t, len(list), FreeListMax)
			assert.True(t, inPool(pool, list), "list %s outside pool %s", list, pool)
			for j := 1; j < len(list); j++ {
				assert.NotEqual(t, list[j-1], list[j], "immediate repeat in %s", list)
			}
		}
	}
}

func TestFreeListWithoutReplacementWhenPoolIsLarge(t *testing.T) {
	g := NewGenerator(1)
	list := g.FreeListOfLength(MixedPool, 12)
	seen := map[trial.Item]bool{}
	for _, it := range list {
		assert.False(t, seen[it], "duplicate %s in %s", it, list)
		seen[it] = true
	}
}

func TestFreeListSmallPoolUsesEveryLetter(t *testing.T) {
	g := NewGenerator(3)
	list := g.FreeListOfLength(SimilarPool, 10)
	require.Len(t, list, 10)
	for _, it := range SimilarPool {
		assert.True(t, list.Contains(it), "pool letter %s missing from %s", it, list)
	}
}

func TestSerialLength(t *testing.T) {
	g := NewGenerator(9)
	assert.Equal(t, ChunkedSerialLength, g.SerialLength(true))
	for i := 0; i < 100; i++ {
		n := g.SerialLength(false)
		assert.GreaterOrEqual(t, n, SerialListMin)
		assert.LessOrEqual(t, n, SerialListMax)
	}
}

func TestSerialListDistinct(t *testing.T) {
	g := NewGenerator(5)
	list, err := g.SerialList(9)
	require.NoError(t, err)
	require.Len(t, list, 9)
	seen := map[trial.Item]bool{}
	for _, it := range list {
		assert.True(t, SerialPool.Contains(it))
		assert.False(t, seen[it])
		seen[it] = true
	}

	_, err = g.SerialList(0)
	assert.Error(t, err)
	_, err = g.SerialList(len(SerialPool) + 1)
	assert.Error(t, err)
}

func TestSameSeedSameLists(t *testing.T) {
	a, b := NewGenerator(1234), NewGenerator(1234)
	for i := 0; i < 10; i++ {
		la, err := a.FreeList(SimilarityMixed)
		require.NoError(t, err)
		lb, err := b.FreeList(SimilarityMixed)
		require.NoError(t, err)
		assert.Equal(t, la, lb)
	}
	assert.Equal(t, int64(1234), a.Seed())
}

func TestZeroSeedIsReplaced(t *testing.T) {
	assert.NotZero(t, NewGenerator(0).Seed())
}

func TestChunks(t *testing.T) {
	chunks := Chunks(trial.ParseSequence("BDGKLMP"), 3)
	require.Len(t, chunks, 3)
	assert.Equal(t, "BDG", chunks[0].String())
	assert.Equal(t, "KLM", chunks[1].String())
	assert.Equal(t, "P", chunks[2].String())
	assert.Len(t, Chunks(trial.ParseSequence("AB"), 0), 2)
	assert.Empty(t, Chunks(nil, 3))
}
