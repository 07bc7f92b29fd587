package scoring

import (
	"github.com/roach88/recall/internal/trial"
)

// Engine scores trials. The zero value scores without a similarity table,
// so phonological confusions are always 0.
type Engine struct {
	similarity SimilarityTable
}

// New creates an engine that counts confusions with table.
// A nil table disables confusion counting.
func New(table SimilarityTable) *Engine {
	return &Engine{similarity: table}
}

// Free scores an order-independent recall.
//
// Each response item consumes the first still-unmatched occurrence of the
// same item in presented, so a repeated response is credited once per
// presented occurrence and never more.
//
// A response item counts as a phonological confusion when it does not occur
// in presented at all but is similar to some presented item.
func (e *Engine) Free(presented, response trial.Sequence) (trial.FreeMetrics, error) {
	if len(presented) == 0 {
		return trial.FreeMetrics{}, invalidInput("presented list is empty")
	}

	remaining := make(map[trial.Item]int, len(presented))
	for _, it := range presented {
		remaining[it]++
	}

	nCorrect := 0
	for _, r := range response {
		if remaining[r] > 0 {
			remaining[r]--
			nCorrect++
		}
	}

	return trial.FreeMetrics{
		NCorrect:               nCorrect,
		ProportionCorrect:      float64(nCorrect) / float64(len(presented)),
		PhonologicalConfusions: e.confusions(presented, response),
	}, nil
}

func (e *Engine) confusions(presented, response trial.Sequence) int {
	if e == nil || e.similarity == nil {
		return 0
	}
	n := 0
	for _, r := range response {
		if presented.Contains(r) {
			continue
		}
		for _, p := range presented {
			if e.similarity.Similar(r, p) {
				n++
				break
			}
		}
	}
	return n
}

// Serial scores an order-dependent recall. Position i is correct iff
// response[i] == presented[i]; positions past the end of response are
// incorrect. A response longer than presented is rejected.
func (e *Engine) Serial(presented, response trial.Sequence) (trial.SerialMetrics, error) {
	if len(presented) == 0 {
		return trial.SerialMetrics{}, invalidInput("presented list is empty")
	}
	if len(response) > len(presented) {
		return trial.SerialMetrics{}, invalidInput("response has %d items, presented list has %d", len(response), len(presented))
	}

	flags := make([]bool, len(presented))
	correct := 0
	for i, target := range presented {
		if i < len(response) && response[i] != trial.Unsure && response[i] == target {
			flags[i] = true
			correct++
		}
	}

	return trial.SerialMetrics{
		PerPosition:                 flags,
		ProportionCorrectInPosition: float64(correct) / float64(len(presented)),
	}, nil
}

// Score dispatches on the trial's paradigm and returns its metrics.
// The trial itself is not modified.
func (e *Engine) Score(t trial.Trial) (trial.Metrics, error) {
	switch t.Paradigm {
	case trial.ParadigmFree:
		m, err := e.Free(t.Presented, t.Response)
		if err != nil {
			return trial.Metrics{}, err
		}
		return trial.Metrics{Free: &m}, nil
	case trial.ParadigmSerial:
		m, err := e.Serial(t.Presented, t.Response)
		if err != nil {
			return trial.Metrics{}, err
		}
		return trial.Metrics{Serial: &m}, nil
	default:
		return trial.Metrics{}, invalidInput("unknown paradigm %q", t.Paradigm)
	}
}
