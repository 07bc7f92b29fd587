package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/recall/internal/protocol"
	"github.com/roach88/recall/internal/stimulus"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Console presents trials on a terminal and reads answers line by line.
// It implements both Presenter and Responder.
type Console struct {
	out   io.Writer
	in    *bufio.Reader
	sleep SleepFunc
	plain bool
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// PlainOutput writes one line per event instead of redrawing in place.
// Use it when out is not a terminal.
func PlainOutput() ConsoleOption {
	return func(c *Console) { c.plain = true }
}

// NewConsole creates a console over out and in. A nil sleep uses Sleep.
func NewConsole(out io.Writer, in io.Reader, sleep SleepFunc, opts ...ConsoleOption) *Console {
	if sleep == nil {
		sleep = Sleep
	}
	c := &Console{out: out, in: bufio.NewReader(in), sleep: sleep}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Header returns the per-trial instruction line for a condition.
func Header(index, of int, condition string) string {
	switch condition {
	case protocol.ConditionSuppression:
		return fmt.Sprintf("Trial %d/%d - Whisper 'the-the-the' at 120 BPM now, keep going until recall ends.", index, of)
	case protocol.ConditionTapping:
		return fmt.Sprintf("Trial %d/%d - Tap your index finger at 120 BPM now, continue until recall ends.", index, of)
	default:
		return fmt.Sprintf("Trial %d/%d - Focus on the cross.", index, of)
	}
}

// Present writes each event and holds it for its duration.
func (c *Console) Present(ctx context.Context, cue Cue) error {
	if _, err := fmt.Fprintln(c.out, Header(cue.Index, cue.Of, cue.Condition)); err != nil {
		return err
	}
	width := 0
	for _, ev := range cue.Events {
		var err error
		switch {
		case c.plain && ev.Kind == stimulus.EventRecall:
			_, err = fmt.Fprintf(c.out, "%s: ", ev.Text)
		case c.plain:
			if ev.Text != "" {
				_, err = fmt.Fprintln(c.out, ev.Text)
			}
		case ev.Kind == stimulus.EventRecall:
			_, err = fmt.Fprintf(c.out, "\r%s\n%s: ", strings.Repeat(" ", width), ev.Text)
		default:
			// Overwrite the previous text in place; blanks print nothing.
			_, err = fmt.Fprintf(c.out, "\r%-*s", width, ev.Text)
			width = max(width, len(ev.Text))
		}
		if err != nil {
			return err
		}
		if err := c.sleep(ctx, ev.Duration); err != nil {
			return err
		}
	}
	return nil
}

// Respond reads one line of input. An empty line is a valid (empty)
// answer; end of input with nothing typed is an error.
//
// If ctx is done first, Respond returns ctx.Err() and the pending read
// stays blocked on the reader until a line arrives. A Console must not be
// used again after a cancelled Respond.
func (c *Console) Respond(ctx context.Context, _ Cue) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && !(r.err == io.EOF && r.line != "") {
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}
