// Package stimulus generates the letter lists presented on each trial and
// the timed schedule they are shown on.
//
// Generation is driven by a seeded *rand.Rand so that a block of trials can
// be reproduced exactly from its seed.
package stimulus

import (
	"fmt"
	"sort"

	"github.com/roach88/recall/internal/trial"
)

// Similarity selects the letter pool for free-recall lists.
type Similarity string

const (
	SimilarityMixed      Similarity = "mixed"
	SimilaritySimilar    Similarity = "similar"
	SimilarityDissimilar Similarity = "dissimilar"
)

// Letter pools.
var (
	// SimilarPool letters share the /i:/ rhyme.
	SimilarPool = trial.ParseSequence("BDGPTV")

	// DissimilarPool letters sound distinct from each other.
	DissimilarPool = trial.ParseSequence("KLRYQHMNZ")

	// MixedPool is the sorted union of SimilarPool and DissimilarPool.
	MixedPool = union(SimilarPool, DissimilarPool)

	// SerialPool is the consonant pool for serial recall.
	SerialPool = trial.ParseSequence("BDGKLMPQRSTVYZ")
)

// PoolFor returns the free-recall pool for a similarity condition.
func PoolFor(s Similarity) (trial.Sequence, error) {
	switch s {
	case SimilaritySimilar:
		return SimilarPool, nil
	case SimilarityDissimilar:
		return DissimilarPool, nil
	case SimilarityMixed, "":
		return MixedPool, nil
	default:
		return nil, fmt.Errorf("unknown similarity %q: must be mixed, similar or dissimilar", s)
	}
}

func union(a, b trial.Sequence) trial.Sequence {
	seen := make(map[trial.Item]struct{}, len(a)+len(b))
	var out trial.Sequence
	for _, s := range []trial.Sequence{a, b} {
		for _, it := range s {
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
