package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// timeLayout stores wall times as sortable UTC text.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalConditions stores labels as canonical JSON so equal label sets
// always produce byte-identical text.
func marshalConditions(c trial.Conditions) (string, error) {
	if c == nil {
		c = trial.Conditions{}
	}
	data, err := trial.MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("marshal conditions: %w", err)
	}
	return string(data), nil
}

func unmarshalConditions(data string) (trial.Conditions, error) {
	c := trial.Conditions{}
	if data == "" || data == "{}" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}
	return c, nil
}

// marshalMetrics stores metrics as plain JSON. Canonical JSON forbids
// floats, and proportions are floats.
func marshalMetrics(m trial.Metrics) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalMetrics(data string) (trial.Metrics, error) {
	var m trial.Metrics
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return trial.Metrics{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return m, nil
}
