package stimulus

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// List length bounds.
const (
	FreeListMin = 10
	FreeListMax = 12

	SerialListMin = 4
	SerialListMax = 9

	// ChunkedSerialLength gives three complete chunks of ChunkSize.
	ChunkedSerialLength = 9

	// ChunkSize is the number of letters per displayed group.
	ChunkSize = 3
)

// Generator produces letter lists from a seeded source.
// Not safe for concurrent use.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// NewGenerator creates a generator. A zero seed is replaced with a
// time-derived one; Seed reports the value actually used.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// FreeList generates a free-recall list of FreeListMin..FreeListMax letters
// from the pool for sim.
func (g *Generator) FreeList(sim Similarity) (trial.Sequence, error) {
	pool, err := PoolFor(sim)
	if err != nil {
		return nil, err
	}
	n := FreeListMin + g.rng.Intn(FreeListMax-FreeListMin+1)
	return g.FreeListOfLength(pool, n), nil
}

// FreeListOfLength draws n letters from pool.
//
// When the pool holds at least n letters they are sampled without
// replacement. Otherwise every pool letter appears once in shuffled order,
// the remainder is drawn with replacement, and any immediate repeat is
// replaced with a different pool letter.
func (g *Generator) FreeListOfLength(pool trial.Sequence, n int) trial.Sequence {
	if n <= len(pool) {
		return g.sample(pool, n)
	}

	letters := g.sample(pool, len(pool))
	for len(letters) < n {
		letters = append(letters, pool[g.rng.Intn(len(pool))])
	}

	if len(pool) < 2 {
		return letters
	}
	for i := 1; i < len(letters); i++ {
		if letters[i] != letters[i-1] {
			continue
		}
		others := make(trial.Sequence, 0, len(pool)-1)
		for _, it := range pool {
			if it != letters[i-1] {
				others = append(others, it)
			}
		}
		letters[i] = others[g.rng.Intn(len(others))]
	}
	return letters
}

// SerialLength picks the list length for a serial-recall trial:
// ChunkedSerialLength when chunking, otherwise uniform in
// SerialListMin..SerialListMax.
func (g *Generator) SerialLength(chunking bool) int {
	if chunking {
		return ChunkedSerialLength
	}
	return SerialListMin + g.rng.Intn(SerialListMax-SerialListMin+1)
}

// SerialList samples n distinct letters from SerialPool.
func (g *Generator) SerialList(n int) (trial.Sequence, error) {
	if n <= 0 {
		return nil, fmt.Errorf("serial list length must be positive, got %d", n)
	}
	if n > len(SerialPool) {
		return nil, fmt.Errorf("serial list length %d exceeds pool of %d letters", n, len(SerialPool))
	}
	return g.sample(SerialPool, n), nil
}

// sample draws n distinct positions of pool in random order.
func (g *Generator) sample(pool trial.Sequence, n int) trial.Sequence {
	perm := g.rng.Perm(len(pool))
	out := make(trial.Sequence, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// Chunks groups seq into runs of size for display. The last group may be
// shorter.
func Chunks(seq trial.Sequence, size int) []trial.Sequence {
	if size <= 0 {
		size = 1
	}
	var out []trial.Sequence
	for i := 0; i < len(seq); i += size {
		end := i + size
		if end > len(seq) {
			end = len(seq)
		}
		out = append(out, seq[i:end].Clone())
	}
	return out
}
