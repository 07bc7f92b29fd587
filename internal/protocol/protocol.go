package protocol

import (
	"sort"
	"strconv"
	"time"

	"github.com/roach88/recall/internal/scoring"
	"github.com/roach88/recall/internal/stimulus"
	"github.com/roach88/recall/internal/trial"
)

// DefaultTrials is used when a protocol does not set trials.
const DefaultTrials = 20

// Free-recall concurrent task conditions.
const (
	ConditionSilent      = "silent"
	ConditionSuppression = "suppression"
	ConditionTapping     = "tapping"
)

// Protocol is one named experiment variant.
type Protocol struct {
	Name       string         `json:"name,omitempty" validate:"required"`
	Paradigm   trial.Paradigm `json:"paradigm" validate:"required,oneof=free_recall serial_recall"`
	Experiment string         `json:"experiment" validate:"required,alphanum"`
	Trials     int            `json:"trials" validate:"min=1,max=500"`
	Seed       int64          `json:"seed,omitempty"`
	Condition  string         `json:"condition,omitempty" validate:"omitempty,oneof=silent suppression tapping"`

	// Free recall.
	Similarity  stimulus.Similarity `json:"similarity,omitempty" validate:"omitempty,oneof=mixed similar dissimilar"`
	Chunked     bool                `json:"chunked,omitempty"`
	OnMS        int                 `json:"on_ms,omitempty" validate:"omitempty,min=50,max=5000"`
	BlankMS     int                 `json:"blank_ms,omitempty" validate:"omitempty,max=5000"`
	RetentionMS int                 `json:"retention_ms,omitempty" validate:"omitempty,max=60000"`

	// Serial recall.
	Rate      stimulus.Rate      `json:"rate,omitempty" validate:"omitempty,oneof=slow fast"`
	PostPhase stimulus.PostPhase `json:"post_phase,omitempty" validate:"omitempty,oneof=immediate pause wm"`
	Chunking  bool               `json:"chunking,omitempty"`

	PhonologicalPairs [][]string `json:"phonological_pairs,omitempty" validate:"omitempty,dive,len=2,dive,len=1,alpha,uppercase"`
	Instructions      string     `json:"instructions,omitempty"`
}

// ApplyDefaults fills unset fields with the paradigm defaults.
func (p *Protocol) ApplyDefaults() {
	if p.Trials == 0 {
		p.Trials = DefaultTrials
	}
	if p.Condition == "" {
		p.Condition = ConditionSilent
	}
	switch p.Paradigm {
	case trial.ParadigmFree:
		if p.Similarity == "" {
			p.Similarity = stimulus.SimilarityMixed
		}
	case trial.ParadigmSerial:
		if p.Rate == "" {
			p.Rate = stimulus.RateSlow
		}
		if p.PostPhase == "" {
			p.PostPhase = stimulus.PostImmediate
		}
	}
}

// Conditions returns the condition labels recorded on every trial of a
// block run with p.
func (p *Protocol) Conditions() trial.Conditions {
	c := trial.Conditions{trial.CondCondition: p.Condition}
	switch p.Paradigm {
	case trial.ParadigmFree:
		c[trial.CondSimilarity] = string(p.Similarity)
		c[trial.CondChunked] = strconv.FormatBool(p.Chunked)
	case trial.ParadigmSerial:
		c[trial.CondRate] = string(p.Rate)
		c[trial.CondPostPhase] = string(p.PostPhase)
		c[trial.CondChunking] = strconv.FormatBool(p.Chunking)
	}
	return c
}

// FreeOptions returns the free-recall presentation options. Unset timing
// falls back to the stimulus defaults.
func (p *Protocol) FreeOptions() stimulus.FreeOptions {
	opts := stimulus.FreeOptions{Chunked: p.Chunked}
	if p.OnMS > 0 {
		opts.Timing = stimulus.Timing{
			On:    time.Duration(p.OnMS) * time.Millisecond,
			Blank: time.Duration(p.BlankMS) * time.Millisecond,
		}
	}
	if p.RetentionMS > 0 {
		opts.Retention = time.Duration(p.RetentionMS) * time.Millisecond
	}
	return opts
}

// SimilarityTable returns the table used to count phonological confusions:
// the protocol's own pairs if it declares any, otherwise the default pairs.
func (p *Protocol) SimilarityTable() (*scoring.PairTable, error) {
	if len(p.PhonologicalPairs) == 0 {
		return scoring.DefaultTable(), nil
	}
	pairs := make([]scoring.Pair, 0, len(p.PhonologicalPairs))
	for _, pp := range p.PhonologicalPairs {
		if len(pp) != 2 {
			return nil, &ValidationError{Field: "phonological_pairs", Message: "each pair needs two letters", Code: ErrCodePairs}
		}
		pairs = append(pairs, scoring.Pair{trial.Item(pp[0]), trial.Item(pp[1])})
	}
	return scoring.NewPairTable(pairs)
}

// Set is a collection of protocols keyed by name.
type Set map[string]*Protocol

// Names returns the protocol names in lexical order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the protocols ordered by paradigm, then experiment, then name.
func (s Set) Sorted() []*Protocol {
	out := make([]*Protocol, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Paradigm != out[j].Paradigm {
			return out[i].Paradigm < out[j].Paradigm
		}
		if out[i].Experiment != out[j].Experiment {
			return out[i].Experiment < out[j].Experiment
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Find returns the protocol with the given name, or the single protocol
// for (paradigm, experiment) when name matches an experiment instead.
func (s Set) Find(name string, paradigm trial.Paradigm) (*Protocol, bool) {
	if p, ok := s[name]; ok {
		return p, true
	}
	var match *Protocol
	for _, p := range s.Sorted() {
		if p.Experiment != name || (paradigm != "" && p.Paradigm != paradigm) {
			continue
		}
		if match != nil {
			return nil, false
		}
		match = p
	}
	return match, match != nil
}
