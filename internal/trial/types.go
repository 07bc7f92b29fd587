package trial

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Paradigm identifies the recall task a trial belongs to.
type Paradigm string

const (
	// ParadigmFree is order-independent recall.
	ParadigmFree Paradigm = "free_recall"

	// ParadigmSerial is recall in presentation order.
	ParadigmSerial Paradigm = "serial_recall"
)

// ParseParadigm accepts the canonical names plus the short forms used on
// the command line ("free", "serial").
func ParseParadigm(s string) (Paradigm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free", "free_recall", "free-recall":
		return ParadigmFree, nil
	case "serial", "serial_recall", "serial-recall":
		return ParadigmSerial, nil
	default:
		return "", fmt.Errorf("unknown paradigm %q: must be free_recall or serial_recall", s)
	}
}

// Valid reports whether p is one of the known paradigms.
func (p Paradigm) Valid() bool {
	return p == ParadigmFree || p == ParadigmSerial
}

// Item is a single presented or recalled stimulus (a letter).
type Item string

// Unsure is the placeholder a participant types for a position they cannot
// recall in serial recall. It never matches a presented item.
const Unsure Item = "?"

// Condition label keys attached to trials. Scoring never reads them.
const (
	CondCondition  = "condition"  // free: silent | suppression | tapping
	CondSimilarity = "similarity" // free: mixed | similar | dissimilar
	CondChunked    = "chunked"    // free: true | false
	CondRate       = "rate"       // serial: slow | fast
	CondPostPhase  = "post_phase" // serial: immediate | pause | wm
	CondChunking   = "chunking"   // serial: true | false
)

// Conditions holds the experiment-variant labels of a trial.
type Conditions map[string]string

// SortedKeys returns the label keys in lexical order.
func (c Conditions) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (c Conditions) Clone() Conditions {
	if c == nil {
		return nil
	}
	out := make(Conditions, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// FreeMetrics is the outcome of scoring a free-recall trial.
type FreeMetrics struct {
	NCorrect               int     `json:"n_correct"`
	ProportionCorrect      float64 `json:"proportion_correct"`
	PhonologicalConfusions int     `json:"phonological_confusions"`
}

// SerialMetrics is the outcome of scoring a serial-recall trial.
type SerialMetrics struct {
	// PerPosition has one flag per presented position.
	PerPosition                 []bool  `json:"per_position"`
	ProportionCorrectInPosition float64 `json:"proportion_correct_in_position"`
}

// Binary renders the per-position flags as a string of 0s and 1s.
func (m SerialMetrics) Binary() string {
	var b strings.Builder
	b.Grow(len(m.PerPosition))
	for _, ok := range m.PerPosition {
		if ok {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Correct returns the number of positions recalled correctly.
func (m SerialMetrics) Correct() int {
	n := 0
	for _, ok := range m.PerPosition {
		if ok {
			n++
		}
	}
	return n
}

// ParseBinary parses a per_position_binary string back into flags.
func ParseBinary(s string) ([]bool, error) {
	flags := make([]bool, 0, len(s))
	for i, r := range s {
		switch r {
		case '1':
			flags = append(flags, true)
		case '0':
			flags = append(flags, false)
		default:
			return nil, fmt.Errorf("per_position_binary[%d]: unexpected %q", i, r)
		}
	}
	return flags, nil
}

// Metrics holds whichever paradigm-specific result applies to a trial.
// Exactly one field is set on a scored trial.
type Metrics struct {
	Free   *FreeMetrics   `json:"free,omitempty"`
	Serial *SerialMetrics `json:"serial,omitempty"`
}

// Trial is one presentation event and its recall.
type Trial struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	Seq        int64      `json:"seq"`
	Index      int        `json:"trial_index"`
	Paradigm   Paradigm   `json:"paradigm"`
	Presented  Sequence   `json:"presented"`
	Response   Sequence   `json:"response"`
	Conditions Conditions `json:"conditions,omitempty"`
	Metrics    Metrics    `json:"metrics"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Session is one participant running one block of a protocol.
type Session struct {
	ID          string    `json:"id"`
	Participant string    `json:"participant"`
	Paradigm    Paradigm  `json:"paradigm"`
	Experiment  string    `json:"experiment"`
	Protocol    string    `json:"protocol"`
	Seed        int64     `json:"seed"`
	Trials      int       `json:"trials"`
	StartedAt   time.Time `json:"started_at"`
}
