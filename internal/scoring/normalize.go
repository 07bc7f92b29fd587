package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/roach88/recall/internal/trial"
)

// NormalizeFree turns raw typed input into a free-recall response: full-width
// characters are folded to ASCII, letters upper-cased, and anything outside
// A-Z dropped.
func NormalizeFree(raw string) trial.Sequence {
	folded := strings.ToUpper(width.Fold.String(raw))
	seq := make(trial.Sequence, 0, len(folded))
	for _, r := range folded {
		if r >= 'A' && r <= 'Z' {
			seq = append(seq, trial.Item(string(r)))
		}
	}
	return seq
}

// NormalizeSerial turns raw typed input into a serial-recall response.
// Letters are upper-cased and every Unicode whitespace rune is removed,
// tabs and embedded spaces included, so whitespace never occupies a
// position. Every other character is kept so positions stay aligned.
// "?" marks an unsure position.
func NormalizeSerial(raw string) trial.Sequence {
	folded := strings.ToUpper(width.Fold.String(raw))
	seq := make(trial.Sequence, 0, len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		seq = append(seq, trial.Item(string(r)))
	}
	return seq
}

// FitSerial trims a serial response to the length of presented. Only the
// first len(presented) positions are scored, so extra typed letters earn
// nothing. The second result reports whether anything was dropped.
// Serial itself still rejects an over-long response.
func FitSerial(presented, response trial.Sequence) (trial.Sequence, bool) {
	if len(response) <= len(presented) {
		return response, false
	}
	return response[:len(presented):len(presented)], true
}

// Normalize applies the normalization for paradigm p.
func Normalize(p trial.Paradigm, raw string) trial.Sequence {
	if p == trial.ParadigmSerial {
		return NormalizeSerial(raw)
	}
	return NormalizeFree(raw)
}
