// Package analysis computes per-experiment statistics from the combined
// data files written by package combine.
package analysis

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/trial"
)

// Kind selects which combined files are analysed.
type Kind struct {
	Paradigm trial.Paradigm
	// Prefix matches combined file names.
	Prefix string
	// Metric is the column summarised.
	Metric string
	// Title labels reports.
	Title string
}

// Kinds.
var (
	Free = Kind{
		Paradigm: trial.ParadigmFree,
		Prefix:   "Free_recall_experiment_",
		Metric:   record.ColProportionCorrect,
		Title:    "Free Recall",
	}
	Serial = Kind{
		Paradigm: trial.ParadigmSerial,
		Prefix:   "Serial_recall_experiment_",
		Metric:   record.ColProportionInPos,
		Title:    "Serial Recall",
	}
)

// KindFor returns the analysis kind of a paradigm.
func KindFor(p trial.Paradigm) (Kind, error) {
	switch p {
	case trial.ParadigmFree:
		return Free, nil
	case trial.ParadigmSerial:
		return Serial, nil
	default:
		return Kind{}, fmt.Errorf("unknown paradigm %q", p)
	}
}

// StatisticsFile is the name of the statistics table for k.
func (k Kind) StatisticsFile() string {
	return string(k.Paradigm) + "_statistics.csv"
}

// Files lists the combined files of kind k under dir in name order.
func Files(dir string, k Kind) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, k.Prefix+"*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Load reads and stacks the combined files of kind k under dir. It returns
// the files it read.
func Load(dir string, k Kind) (*record.Table, []string, error) {
	files, err := Files(dir, k)
	if err != nil {
		return nil, nil, err
	}
	tables := make([]*record.Table, 0, len(files))
	for _, f := range files {
		t, err := record.ReadFile(f)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", filepath.Base(f), err)
		}
		tables = append(tables, t)
	}
	return record.Concat(tables...), files, nil
}

// Summary is the mean, sample standard deviation and count of a metric.
// Std is NaN when fewer than two values exist.
type Summary struct {
	Experiment string  `json:"experiment"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	N          int     `json:"n"`
}

// Describe summarises values under the given label.
func Describe(label string, values []float64) Summary {
	s := Summary{Experiment: label, N: len(values), Mean: math.NaN(), Std: math.NaN()}
	if s.N == 0 {
		return s
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(s.N)
	if s.N < 2 {
		return s
	}
	var ss float64
	for _, v := range values {
		d := v - s.Mean
		ss += d * d
	}
	s.Std = math.Sqrt(ss / float64(s.N-1))
	return s
}

// Group splits the metric column of tab by the key column. Keys are
// returned in order of first appearance.
func Group(tab *record.Table, key, metric string) ([]string, map[string][]float64, error) {
	ki, mi := tab.Index(key), tab.Index(metric)
	if ki < 0 {
		return nil, nil, fmt.Errorf("missing column %q", key)
	}
	if mi < 0 {
		return nil, nil, fmt.Errorf("missing column %q", metric)
	}
	var order []string
	groups := map[string][]float64{}
	for i, row := range tab.Rows {
		v, err := strconv.ParseFloat(row[mi], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", metric, i+2, err)
		}
		k := row[ki]
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	return order, groups, nil
}

// ByExperiment summarises the metric of kind k for every experiment in tab,
// in order of first appearance.
func ByExperiment(tab *record.Table, k Kind) ([]Summary, error) {
	order, groups, err := Group(tab, combine.ColExperimentName, k.Metric)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, Describe(name, groups[name]))
	}
	return out, nil
}

// LengthExperiment is the serial experiment that varies list length.
const LengthExperiment = "Length"

// ComparisonOrder is the order serial conditions are compared in.
var ComparisonOrder = []string{"Tapping", "Suppression", "Chunking"}

// CapacityPoint is performance at one list length.
type CapacityPoint struct {
	Length int `json:"list_length"`
	Summary
}

// Capacity summarises serial performance by list length for the Length
// experiment, ordered by length. It returns nil when there is no Length data.
func Capacity(tab *record.Table) ([]CapacityPoint, error) {
	ei, li, mi := tab.Index(combine.ColExperimentName), tab.Index(record.ColListLength), tab.Index(Serial.Metric)
	if ei < 0 || li < 0 || mi < 0 {
		return nil, fmt.Errorf("capacity needs %s, %s and %s columns",
			combine.ColExperimentName, record.ColListLength, Serial.Metric)
	}
	groups := map[int][]float64{}
	for i, row := range tab.Rows {
		if row[ei] != LengthExperiment {
			continue
		}
		n, err := strconv.Atoi(row[li])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", record.ColListLength, i+2, err)
		}
		v, err := strconv.ParseFloat(row[mi], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", Serial.Metric, i+2, err)
		}
		groups[n] = append(groups[n], v)
	}
	lengths := make([]int, 0, len(groups))
	for n := range groups {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)
	var out []CapacityPoint
	for _, n := range lengths {
		out = append(out, CapacityPoint{Length: n, Summary: Describe(strconv.Itoa(n), groups[n])})
	}
	return out, nil
}

// Compare picks the summaries named in ComparisonOrder, skipping absent
// experiments.
func Compare(summaries []Summary) []Summary {
	byName := make(map[string]Summary, len(summaries))
	for _, s := range summaries {
		byName[s.Experiment] = s
	}
	var out []Summary
	for _, name := range ComparisonOrder {
		if s, ok := byName[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Bin is one histogram bucket covering [Lo, Hi). The last bin is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// HistogramBins is the bucket count used in reports.
const HistogramBins = 15

// Histogram buckets values into n equal-width bins spanning their range.
// A degenerate range is widened by 0.5 on each side.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}
