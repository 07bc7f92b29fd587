package stimulus

import (
	"fmt"
	"time"

	"github.com/roach88/recall/internal/trial"
)

// EventKind identifies one step of a trial's presentation.
type EventKind string

const (
	EventFixation  EventKind = "fixation"
	EventItem      EventKind = "item"
	EventBlank     EventKind = "blank"
	EventRetention EventKind = "retention"
	EventPause     EventKind = "pause"
	EventTask      EventKind = "task"
	EventRecall    EventKind = "recall"
)

// Event is one timed step. Recall events have zero duration: they last
// until the participant submits.
type Event struct {
	Kind     EventKind     `json:"kind"`
	Text     string        `json:"text,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Rate is the serial-recall presentation rate.
type Rate string

const (
	RateSlow Rate = "slow"
	RateFast Rate = "fast"
)

// PostPhase is what happens between the last item and recall in serial recall.
type PostPhase string

const (
	PostImmediate PostPhase = "immediate"
	PostPause     PostPhase = "pause"
	PostWMTask    PostPhase = "wm"
)

// Timing is how long each item is on screen and the blank after it.
type Timing struct {
	On    time.Duration
	Blank time.Duration
}

// Fixed durations.
const (
	FixationDuration  = 500 * time.Millisecond
	RetentionDuration = 1000 * time.Millisecond
	InterChunkGap     = 400 * time.Millisecond
	ImmediateBlank    = 1000 * time.Millisecond
	PauseDuration     = 5000 * time.Millisecond
	WMTaskDuration    = 5000 * time.Millisecond
)

// FreeTiming is the free-recall item timing.
var FreeTiming = Timing{On: 400 * time.Millisecond, Blank: 100 * time.Millisecond}

// Rates maps serial-recall rates to item timing: slow is about 1 Hz and
// fast about 2 Hz.
var Rates = map[Rate]Timing{
	RateSlow: {On: 800 * time.Millisecond, Blank: 200 * time.Millisecond},
	RateFast: {On: 500 * time.Millisecond, Blank: 0},
}

// Prompts shown on screen.
const (
	PromptFixation   = "+"
	PromptFreeRecall = "Type all letters you remember (any order)"
	PromptSerial     = "Type the letters in order"
	PromptImmediate  = "Prepare to recall..."
	PromptPause      = "Pause. Stay quiet. Do not rehearse aloud."
	PromptWMTask     = "Count backwards aloud by 3s (e.g., 100, 97, 94, ...)"
)

// RateTiming returns the timing for r.
func RateTiming(r Rate) (Timing, error) {
	t, ok := Rates[r]
	if !ok {
		return Timing{}, fmt.Errorf("unknown rate %q: must be slow or fast", r)
	}
	return t, nil
}

// FreeOptions controls a free-recall presentation. Zero fields take the
// package defaults (FreeTiming, RetentionDuration).
type FreeOptions struct {
	Chunked   bool
	Timing    Timing
	Retention time.Duration
}

func (o FreeOptions) withDefaults() FreeOptions {
	if o.Timing.On == 0 {
		o.Timing = FreeTiming
	}
	if o.Retention == 0 {
		o.Retention = RetentionDuration
	}
	return o
}

// FreeSchedule builds the presentation of a free-recall list: fixation,
// each letter with its blank, a longer gap after every completed chunk when
// chunked, the retention interval, then recall.
func FreeSchedule(list trial.Sequence, opts FreeOptions) []Event {
	opts = opts.withDefaults()
	events := []Event{{Kind: EventFixation, Text: PromptFixation, Duration: FixationDuration}}
	for i, it := range list {
		events = append(events, Event{Kind: EventItem, Text: string(it), Duration: opts.Timing.On})
		blank := opts.Timing.Blank
		// The gap replaces the blank after the last letter of a chunk
		// (items 3, 6, 9), never the blank after the first letter of the
		// next chunk.
		if opts.Chunked && (i+1)%ChunkSize == 0 && i < len(list)-1 {
			blank = InterChunkGap
		}
		events = append(events, Event{Kind: EventBlank, Duration: blank})
	}
	events = append(events,
		Event{Kind: EventRetention, Duration: opts.Retention},
		Event{Kind: EventRecall, Text: PromptFreeRecall},
	)
	return events
}

// SerialSchedule builds the presentation of a serial-recall list. With
// chunking each group of ChunkSize letters is shown at once ("B D G").
// Zero-length blanks are omitted.
func SerialSchedule(list trial.Sequence, rate Rate, chunking bool, post PostPhase) ([]Event, error) {
	timing, err := RateTiming(rate)
	if err != nil {
		return nil, err
	}

	events := []Event{{Kind: EventFixation, Text: PromptFixation, Duration: FixationDuration}}

	groups := []trial.Sequence{}
	if chunking {
		groups = Chunks(list, ChunkSize)
	} else {
		for _, it := range list {
			groups = append(groups, trial.Sequence{it})
		}
	}
	for _, g := range groups {
		events = append(events, Event{Kind: EventItem, Text: g.Join(" "), Duration: timing.On})
		if timing.Blank > 0 {
			events = append(events, Event{Kind: EventBlank, Duration: timing.Blank})
		}
	}

	switch post {
	case PostImmediate, "":
		events = append(events, Event{Kind: EventBlank, Text: PromptImmediate, Duration: ImmediateBlank})
	case PostPause:
		events = append(events, Event{Kind: EventPause, Text: PromptPause, Duration: PauseDuration})
	case PostWMTask:
		events = append(events, Event{Kind: EventTask, Text: PromptWMTask, Duration: WMTaskDuration})
	default:
		return nil, fmt.Errorf("unknown post-list phase %q: must be immediate, pause or wm", post)
	}

	events = append(events, Event{Kind: EventRecall, Text: PromptSerial})
	return events, nil
}

// Total returns the summed duration of events.
func Total(events []Event) time.Duration {
	var d time.Duration
	for _, e := range events {
		d += e.Duration
	}
	return d
}
