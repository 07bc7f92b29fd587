package scoring

import (
	"fmt"
	"sort"

	"github.com/roach88/recall/internal/trial"
)

// SimilarityTable reports whether two items sound alike.
// Implementations must be symmetric.
type SimilarityTable interface {
	Similar(a, b trial.Item) bool
}

// Pair is an unordered pair of phonologically similar items.
type Pair [2]trial.Item

// DefaultPairs is the confusion map used by the letter-list experiments.
var DefaultPairs = []Pair{
	{"B", "P"},
	{"D", "T"},
	{"G", "K"},
	{"F", "S"},
	{"M", "N"},
	{"V", "B"},
	{"V", "F"},
}

// PairTable is a symmetric SimilarityTable built from explicit pairs.
type PairTable struct {
	neighbours map[trial.Item]map[trial.Item]struct{}
}

// NewPairTable builds a table from pairs. A pair of an item with itself is
// rejected because an exact match is never a confusion.
func NewPairTable(pairs []Pair) (*PairTable, error) {
	t := &PairTable{neighbours: make(map[trial.Item]map[trial.Item]struct{})}
	for i, p := range pairs {
		if p[0] == "" || p[1] == "" {
			return nil, fmt.Errorf("pair %d: empty item", i)
		}
		if p[0] == p[1] {
			return nil, fmt.Errorf("pair %d: %q paired with itself", i, p[0])
		}
		t.add(p[0], p[1])
		t.add(p[1], p[0])
	}
	return t, nil
}

// DefaultTable returns a table over DefaultPairs.
func DefaultTable() *PairTable {
	t, err := NewPairTable(DefaultPairs)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *PairTable) add(a, b trial.Item) {
	set, ok := t.neighbours[a]
	if !ok {
		set = make(map[trial.Item]struct{})
		t.neighbours[a] = set
	}
	set[b] = struct{}{}
}

// Similar implements SimilarityTable.
func (t *PairTable) Similar(a, b trial.Item) bool {
	if t == nil {
		return false
	}
	_, ok := t.neighbours[a][b]
	return ok
}

// Neighbours returns the items similar to it, sorted.
func (t *PairTable) Neighbours(it trial.Item) []trial.Item {
	if t == nil {
		return nil
	}
	out := make([]trial.Item, 0, len(t.neighbours[it]))
	for n := range t.neighbours[it] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Pairs returns each unordered pair once, sorted, for display and storage.
func (t *PairTable) Pairs() []Pair {
	if t == nil {
		return nil
	}
	var out []Pair
	for a, set := range t.neighbours {
		for b := range set {
			if a < b {
				out = append(out, Pair{a, b})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
