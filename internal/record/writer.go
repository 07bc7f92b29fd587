package record

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// Writer writes trials of one paradigm as CSV rows, header first.
type Writer struct {
	cw          *csv.Writer
	paradigm    trial.Paradigm
	participant string
	loc         *time.Location
	wroteHeader bool
}

// NewWriter creates a writer for the trials of participant. A nil loc
// formats timestamps in local time.
func NewWriter(w io.Writer, p trial.Paradigm, participant string, loc *time.Location) (*Writer, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("new writer: unknown paradigm %q", p)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Writer{cw: csv.NewWriter(w), paradigm: p, participant: participant, loc: loc}, nil
}

// WriteHeader writes and flushes the header if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	cols, err := Columns(w.paradigm)
	if err != nil {
		return err
	}
	if err := w.cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.wroteHeader = true
	w.cw.Flush()
	return w.cw.Error()
}

// Write writes one trial and flushes it.
func (w *Writer) Write(t trial.Trial) error {
	if t.Paradigm != w.paradigm {
		return fmt.Errorf("write trial %d: paradigm %q in a %q file", t.Index, t.Paradigm, w.paradigm)
	}
	if err := w.WriteHeader(); err != nil {
		return err
	}
	row, err := Row(w.participant, t, w.loc)
	if err != nil {
		return err
	}
	if err := w.cw.Write(row); err != nil {
		return fmt.Errorf("write trial %d: %w", t.Index, err)
	}
	w.cw.Flush()
	return w.cw.Error()
}

// CSVSink writes each block to its own file in a directory, named by
// FileName. It is a session sink.
type CSVSink struct {
	dir  string
	loc  *time.Location
	file *os.File
	w    *Writer
	path string
}

// NewCSVSink creates a sink writing into dir, which is created if needed.
func NewCSVSink(dir string, loc *time.Location) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVSink{dir: dir, loc: loc}, nil
}

// WriteSession opens the block's file and writes the header.
func (s *CSVSink) WriteSession(_ context.Context, sess trial.Session) error {
	if s.file != nil {
		return errors.New("csv sink: session already open")
	}
	s.path = filepath.Join(s.dir, FileName(sess.Paradigm, sess.Participant, sess.StartedAt))
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	w, err := NewWriter(f, sess.Paradigm, sess.Participant, s.loc)
	if err != nil {
		f.Close()
		return err
	}
	if err := w.WriteHeader(); err != nil {
		f.Close()
		return err
	}
	s.file, s.w = f, w
	return nil
}

// WriteTrial appends one row.
func (s *CSVSink) WriteTrial(_ context.Context, t trial.Trial) error {
	if s.w == nil {
		return errors.New("csv sink: no session open")
	}
	return s.w.Write(t)
}

// Path returns the file being written, empty before WriteSession.
func (s *CSVSink) Path() string {
	return s.path
}

// Close closes the current file.
func (s *CSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file, s.w = nil, nil
	return err
}
