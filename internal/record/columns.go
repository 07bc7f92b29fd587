package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// TimestampLayout is the timestamp column format.
const TimestampLayout = "2006-01-02 15:04:05"

// Column names shared by both schemas.
const (
	ColTimestamp   = "timestamp"
	ColParticipant = "participant"
	ColTrialIndex  = "trial_index"
	ColListItems   = "list_items"
	ColResponse    = "response"
)

// Free-recall columns.
const (
	ColCondition         = "condition"
	ColSimilarity        = "similarity"
	ColChunked           = "chunked"
	ColNCorrect          = "n_correct"
	ColProportionCorrect = "proportion_correct"
	ColConfusions        = "phonological_confusions"
)

// Serial-recall columns.
const (
	ColRate              = "rate"
	ColPostPhase         = "post_phase"
	ColChunking          = "chunking"
	ColListLength        = "list_length"
	ColProportionInPos   = "proportion_correct_in_position"
	ColPerPositionBinary = "per_position_binary"
)

// FreeColumns is the free-recall header.
var FreeColumns = []string{
	ColTimestamp, ColParticipant, ColTrialIndex, ColCondition, ColSimilarity, ColChunked,
	ColListItems, ColResponse, ColNCorrect, ColProportionCorrect, ColConfusions,
}

// SerialColumns is the serial-recall header.
var SerialColumns = []string{
	ColTimestamp, ColParticipant, ColTrialIndex, ColRate, ColPostPhase, ColChunking,
	ColListLength, ColListItems, ColResponse, ColProportionInPos, ColPerPositionBinary,
}

// Columns returns the header for paradigm p.
func Columns(p trial.Paradigm) ([]string, error) {
	switch p {
	case trial.ParadigmFree:
		return FreeColumns, nil
	case trial.ParadigmSerial:
		return SerialColumns, nil
	default:
		return nil, fmt.Errorf("unknown paradigm %q", p)
	}
}

// FileName returns the conventional file name for a block started at t,
// e.g. free_recall_P01_1714060800.csv. Path separators and whitespace in
// the participant are replaced with underscores.
func FileName(p trial.Paradigm, participant string, t time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '\t':
			return '_'
		}
		return r
	}, participant)
	return fmt.Sprintf("%s_%s_%d.csv", p, clean, t.Unix())
}

// FormatProportion renders a proportion with three decimals.
func FormatProportion(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Row renders t in the schema of its paradigm. Timestamps are shown in loc.
func Row(participant string, t trial.Trial, loc *time.Location) ([]string, error) {
	ts := t.RecordedAt.In(loc).Format(TimestampLayout)
	c := t.Conditions
	switch t.Paradigm {
	case trial.ParadigmFree:
		m := t.Metrics.Free
		if m == nil {
			return nil, fmt.Errorf("trial %d: missing free-recall metrics", t.Index)
		}
		chunked := "0"
		if c[trial.CondChunked] == "true" {
			chunked = "1"
		}
		return []string{
			ts, participant, strconv.Itoa(t.Index),
			c[trial.CondCondition], c[trial.CondSimilarity], chunked,
			t.Presented.String(), t.Response.String(),
			strconv.Itoa(m.NCorrect), FormatProportion(m.ProportionCorrect),
			strconv.Itoa(m.PhonologicalConfusions),
		}, nil
	case trial.ParadigmSerial:
		m := t.Metrics.Serial
		if m == nil {
			return nil, fmt.Errorf("trial %d: missing serial-recall metrics", t.Index)
		}
		chunking := "False"
		if c[trial.CondChunking] == "true" {
			chunking = "True"
		}
		return []string{
			ts, participant, strconv.Itoa(t.Index),
			c[trial.CondRate], c[trial.CondPostPhase], chunking,
			strconv.Itoa(len(t.Presented)),
			t.Presented.String(), t.Response.String(),
			FormatProportion(m.ProportionCorrectInPosition), m.Binary(),
		}, nil
	default:
		return nil, fmt.Errorf("trial %d: unknown paradigm %q", t.Index, t.Paradigm)
	}
}

// Trials reads the rows of a per-participant file back into trials, with the
// metrics as recorded in the file. Proportions keep the file's three-decimal
// precision.
func Trials(p trial.Paradigm, tab *Table) ([]trial.Trial, error) {
	required := []string{ColTrialIndex, ColListItems, ColResponse}
	switch p {
	case trial.ParadigmFree:
		required = append(required, ColNCorrect, ColProportionCorrect, ColConfusions)
	case trial.ParadigmSerial:
		required = append(required, ColProportionInPos, ColPerPositionBinary)
	default:
		return nil, fmt.Errorf("unknown paradigm %q", p)
	}
	for _, col := range required {
		if tab.Index(col) < 0 {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	out := make([]trial.Trial, 0, tab.Len())
	for i := 0; i < tab.Len(); i++ {
		line := i + 2 // header is line 1
		index, err := strconv.Atoi(tab.Value(i, ColTrialIndex))
		if err != nil {
			return nil, fmt.Errorf("line %d: trial_index: %w", line, err)
		}
		t := trial.Trial{
			Index:      index,
			Paradigm:   p,
			Presented:  trial.ParseSequence(tab.Value(i, ColListItems)),
			Response:   trial.ParseSequence(tab.Value(i, ColResponse)),
			Conditions: trial.Conditions{},
		}
		if ts := tab.Value(i, ColTimestamp); ts != "" {
			if at, err := time.ParseInLocation(TimestampLayout, ts, time.Local); err == nil {
				t.RecordedAt = at
			}
		}

		switch p {
		case trial.ParadigmFree:
			m, err := parseFree(tab, i)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			t.Metrics.Free = m
			for _, k := range []string{trial.CondCondition, trial.CondSimilarity} {
				if v := tab.Value(i, k); v != "" {
					t.Conditions[k] = v
				}
			}
			if v := tab.Value(i, ColChunked); v != "" {
				t.Conditions[trial.CondChunked] = strconv.FormatBool(v == "1")
			}
		case trial.ParadigmSerial:
			m, err := parseSerial(tab, i)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			t.Metrics.Serial = m
			for _, k := range []string{trial.CondRate, trial.CondPostPhase} {
				if v := tab.Value(i, k); v != "" {
					t.Conditions[k] = v
				}
			}
			if v := tab.Value(i, ColChunking); v != "" {
				t.Conditions[trial.CondChunking] = strconv.FormatBool(strings.EqualFold(v, "true"))
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func parseFree(tab *Table, i int) (*trial.FreeMetrics, error) {
	n, err := strconv.Atoi(tab.Value(i, ColNCorrect))
	if err != nil {
		return nil, fmt.Errorf("n_correct: %w", err)
	}
	prop, err := strconv.ParseFloat(tab.Value(i, ColProportionCorrect), 64)
	if err != nil {
		return nil, fmt.Errorf("proportion_correct: %w", err)
	}
	conf, err := strconv.Atoi(tab.Value(i, ColConfusions))
	if err != nil {
		return nil, fmt.Errorf("phonological_confusions: %w", err)
	}
	return &trial.FreeMetrics{NCorrect: n, ProportionCorrect: prop, PhonologicalConfusions: conf}, nil
}

func parseSerial(tab *Table, i int) (*trial.SerialMetrics, error) {
	prop, err := strconv.ParseFloat(tab.Value(i, ColProportionInPos), 64)
	if err != nil {
		return nil, fmt.Errorf("proportion_correct_in_position: %w", err)
	}
	flags, err := trial.ParseBinary(tab.Value(i, ColPerPositionBinary))
	if err != nil {
		return nil, err
	}
	return &trial.SerialMetrics{PerPosition: flags, ProportionCorrectInPosition: prop}, nil
}
