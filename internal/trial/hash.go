package trial

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix lets the hashing rules change without colliding.
const (
	DomainTrial = "recall/trial/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TrialID computes the content-addressed ID of a trial.
// The same session, index, paradigm, presented list and response always
// produce the same ID, so re-recording a trial is idempotent.
//
// Metrics and conditions are excluded: metrics are derived from the hashed
// inputs, and conditions are fixed per session.
func TrialID(sessionID string, index int, paradigm Paradigm, presented, response Sequence) (string, error) {
	obj := map[string]any{
		"session_id":  sessionID,
		"trial_index": index,
		"paradigm":    paradigm,
		"presented":   presented,
		"response":    response,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TrialID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainTrial, canonical), nil
}

// MustTrialID is TrialID for inputs known to be valid. Panics on error.
func MustTrialID(sessionID string, index int, paradigm Paradigm, presented, response Sequence) string {
	id, err := TrialID(sessionID, index, paradigm, presented, response)
	if err != nil {
		panic(err)
	}
	return id
}

// AssignID computes and sets t.ID from its hashed fields.
func (t *Trial) AssignID() error {
	id, err := TrialID(t.SessionID, t.Index, t.Paradigm, t.Presented, t.Response)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}
