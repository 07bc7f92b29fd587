package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/roach88/recall/internal/combine"
	"github.com/roach88/recall/internal/record"
)

// Statistics table header.
var StatisticsHeader = []string{"Experiment", "Mean Performance", "Std Performance", "N Trials"}

// FormatStat formats a statistic to three decimals, or "nan" when undefined.
func FormatStat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// StatisticsTable renders summaries in the statistics file layout.
func StatisticsTable(summaries []Summary) *record.Table {
	t := record.NewTable(StatisticsHeader...)
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{s.Experiment, FormatStat(s.Mean), FormatStat(s.Std), strconv.Itoa(s.N)})
	}
	return t
}

// Report is the full analysis of one kind.
type Report struct {
	Kind         string           `json:"kind"`
	Files        []string         `json:"files"`
	Records      int              `json:"records"`
	Summaries    []Summary        `json:"summaries"`
	Capacity     []CapacityPoint  `json:"capacity,omitempty"`
	Comparison   []Summary        `json:"comparison,omitempty"`
	Distribution map[string][]Bin `json:"distribution,omitempty"`
	Output       string           `json:"output,omitempty"`
}

// ErrNoData is returned by Analyze when no combined files exist.
var ErrNoData = errors.New("no combined data found")

// Analyze loads the combined files of kind k under dir and computes its
// report. Serial reports also carry capacity and comparison sections.
func Analyze(dir string, k Kind) (*Report, error) {
	tab, files, err := Load(dir, k)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 || tab.Len() == 0 {
		return nil, fmt.Errorf("%s in %s: %w", k.Title, dir, ErrNoData)
	}

	rep := &Report{Kind: k.Title, Files: files, Records: tab.Len()}
	rep.Summaries, err = ByExperiment(tab, k)
	if err != nil {
		return nil, err
	}

	order, groups, err := Group(tab, combine.ColExperimentName, k.Metric)
	if err != nil {
		return nil, err
	}
	rep.Distribution = make(map[string][]Bin, len(order))
	for _, name := range order {
		rep.Distribution[name] = Histogram(groups[name], HistogramBins)
	}

	if k.Paradigm == Serial.Paradigm {
		rep.Capacity, err = Capacity(tab)
		if err != nil {
			return nil, err
		}
		rep.Comparison = Compare(rep.Summaries)
	}
	return rep, nil
}

// WriteStatistics writes the statistics table for rep into out and records
// the path on rep.
func WriteStatistics(out string, k Kind, rep *Report) (string, error) {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(out, k.StatisticsFile())
	if err := StatisticsTable(rep.Summaries).WriteFile(path); err != nil {
		return "", fmt.Errorf("write statistics: %w", err)
	}
	rep.Output = path
	return path, nil
}

// Render writes rep as a plain-text report.
func Render(w io.Writer, rep *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Statistics\n", rep.Kind)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Loaded %d records from %d files\n\n", rep.Records, len(rep.Files))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	writeSummaries(tw, rep.Summaries)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Capacity) > 0 {
		b.WriteString("\nWorking memory capacity (Length)\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "List Length\tMean\tStd\tN")
		for _, c := range rep.Capacity {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", c.Length, FormatStat(c.Mean), FormatStat(c.Std), c.N)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Comparison) > 0 {
		b.WriteString("\nCondition comparison\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		writeSummaries(tw, rep.Comparison)
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, s := range rep.Summaries {
		bins := rep.Distribution[s.Experiment]
		if len(bins) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nDistribution: %s (mean %s)\n", s.Experiment, FormatStat(s.Mean))
		for _, bin := range bins {
			fmt.Fprintf(&b, "  [%.3f, %.3f) %3d", bin.Lo, bin.Hi, bin.Count)
			if bin.Count > 0 {
				b.WriteString(" " + strings.Repeat("#", bin.Count))
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummaries(tw *tabwriter.Writer, summaries []Summary) {
	fmt.Fprintln(tw, strings.Join(StatisticsHeader, "\t"))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Experiment, FormatStat(s.Mean), FormatStat(s.Std), s.N)
	}
}
