// Package combine merges the per-participant CSV files of each experiment
// into one file per experiment.
//
// Input files live under <root>/experiments/<type>/<name>/*.csv and output
// goes to <root>/combined_data/<type_with_underscores>_<name>_combined.csv.
// Bookkeeping columns are dropped and every row is tagged with its
// experiment type and name.
package combine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/recall/internal/record"
	"github.com/roach88/recall/internal/trial"
)

// Directory names.
const (
	ExperimentsDir = "experiments"
	OutputDir      = "combined_data"
)

// Experiment type folders and their labels in combined files.
const (
	FreeType    = "Free recall experiment"
	SerialType  = "Serial recall experiment"
	FreeLabel   = "Free Recall"
	SerialLabel = "Serial Recall"
)

// Added columns.
const (
	ColExperimentType = "experiment_type"
	ColExperimentName = "experiment_name"
)

// DroppedColumns are removed before combining.
var DroppedColumns = []string{
	record.ColParticipant, record.ColTrialIndex, record.ColTimestamp,
	record.ColCondition, record.ColSimilarity, record.ColRate,
	record.ColPostPhase, record.ColChunking, record.ColChunked,
}

// Experiment is one experiment folder.
type Experiment struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Default returns the experiment folders the group uses.
func Default() []Experiment {
	var out []Experiment
	for _, n := range []string{"Baseline", "Pause", "Speed", "Suppression"} {
		out = append(out, Experiment{Type: FreeType, Name: n, Label: FreeLabel})
	}
	for _, n := range []string{"Chunking", "Length", "Suppression", "Tapping"} {
		out = append(out, Experiment{Type: SerialType, Name: n, Label: SerialLabel})
	}
	return out
}

// ForParadigm returns the experiment folder for a paradigm and name.
func ForParadigm(p trial.Paradigm, name string) (Experiment, error) {
	switch p {
	case trial.ParadigmFree:
		return Experiment{Type: FreeType, Name: name, Label: FreeLabel}, nil
	case trial.ParadigmSerial:
		return Experiment{Type: SerialType, Name: name, Label: SerialLabel}, nil
	default:
		return Experiment{}, fmt.Errorf("unknown paradigm %q", p)
	}
}

// Paradigm returns the paradigm of the experiment's type folder.
func (e Experiment) Paradigm() trial.Paradigm {
	if e.Type == SerialType {
		return trial.ParadigmSerial
	}
	return trial.ParadigmFree
}

// InputDir is the folder holding the experiment's participant files.
func (e Experiment) InputDir(root string) string {
	return filepath.Join(root, ExperimentsDir, e.Type, e.Name)
}

// OutputFile is the combined file for the experiment.
func (e Experiment) OutputFile(root string) string {
	name := fmt.Sprintf("%s_%s_combined.csv", strings.ReplaceAll(e.Type, " ", "_"), e.Name)
	return filepath.Join(root, OutputDir, name)
}

// FileError is an input file that could not be read.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report describes what happened to one experiment.
type Report struct {
	Experiment Experiment  `json:"experiment"`
	Files      []string    `json:"files"`
	Skipped    []FileError `json:"skipped,omitempty"`
	Rows       int         `json:"rows"`
	Output     string      `json:"output,omitempty"`
}

// Options tunes Run.
type Options struct {
	// Workers bounds concurrent file reads. Zero means 4.
	Workers int
	Logger  *slog.Logger
}

// Run combines every experiment in exps under root. Unreadable files are
// skipped and reported; experiments without files produce a report with
// no output. Only failures to write output are returned as errors.
func Run(ctx context.Context, root string, exps []Experiment, opts Options) ([]Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(root, OutputDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	reports := make([]Report, 0, len(exps))
	for _, exp := range exps {
		rep, err := runOne(ctx, root, exp, opts.Workers, log)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func runOne(ctx context.Context, root string, exp Experiment, workers int, log *slog.Logger) (Report, error) {
	rep := Report{Experiment: exp, Files: []string{}}

	files, err := filepath.Glob(filepath.Join(exp.InputDir(root), "*.csv"))
	if err != nil {
		return rep, fmt.Errorf("glob %s: %w", exp.InputDir(root), err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		log.Warn("no CSV files found", "type", exp.Type, "experiment", exp.Name)
		return rep, nil
	}
	rep.Files = files

	tables := make([]*record.Table, len(files))
	readErrs := make([]error, len(files))

	if workers <= 0 {
		workers = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tab, err := record.ReadFile(path)
			if err != nil {
				readErrs[i] = err
				return nil
			}
			tables[i] = Tag(tab, exp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	var ok []*record.Table
	for i, path := range files {
		if readErrs[i] != nil {
			log.Warn("skipping unreadable file", "path", path, "error", readErrs[i])
			rep.Skipped = append(rep.Skipped, FileError{Path: path, Err: readErrs[i].Error()})
			continue
		}
		log.Debug("processed", "path", path, "rows", tables[i].Len())
		ok = append(ok, tables[i])
	}

	combined := record.Concat(ok...)
	if combined.Len() == 0 {
		log.Warn("no data to save", "type", exp.Type, "experiment", exp.Name)
		return rep, nil
	}

	out := exp.OutputFile(root)
	if err := combined.WriteFile(out); err != nil {
		return rep, fmt.Errorf("write combined %s: %w", exp.Name, err)
	}
	rep.Rows = combined.Len()
	rep.Output = out
	log.Info("saved", "path", out, "records", rep.Rows)
	return rep, nil
}

// Tag drops the bookkeeping columns from tab and appends the experiment
// type and name.
func Tag(tab *record.Table, exp Experiment) *record.Table {
	return tab.Drop(DroppedColumns...).
		WithConstant(ColExperimentType, exp.Label).
		WithConstant(ColExperimentName, exp.Name)
}
