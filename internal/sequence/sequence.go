// Package sequence emits a list of numbers one at a time with a fixed delay
// between them. A run ends with exactly one completion or cancellation
// marker.
package sequence

import (
	"context"
	"iter"
	"time"
)

// EventKind distinguishes values from the terminal markers.
type EventKind int

const (
	EventValue EventKind = iota
	EventCompleted
	EventCancelled
)

// Terminal marker text.
const (
	CompletedMarker = "Processing completed"
	CancelledMarker = "Processing cancelled"
)

// Event is one step of a running sequence.
type Event struct {
	Kind  EventKind
	Value string // formatted number for EventValue
	Index int    // 1-based position of the last emitted value
	Total int
}

// String returns the line a result log shows for e.
func (e Event) String() string {
	switch e.Kind {
	case EventCompleted:
		return CompletedMarker
	case EventCancelled:
		return CancelledMarker
	default:
		return e.Value
	}
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool { return e.Kind != EventValue }

// Percent returns progress as a rounded percentage.
func (e Event) Percent() int {
	if e.Total == 0 {
		return 0
	}
	return (e.Index*200 + e.Total) / (e.Total * 2)
}

// Sequence is a restartable, finite list of numbers to emit.
type Sequence struct {
	numbers []float64
	delay   time.Duration
}

// New creates a sequence. The delay is clamped to [MinDelay, MaxDelay].
func New(numbers []float64, delay time.Duration) *Sequence {
	return &Sequence{numbers: numbers, delay: ClampDelay(delay)}
}

// Len returns the number of values.
func (s *Sequence) Len() int { return len(s.numbers) }

// Delay returns the clamped step delay.
func (s *Sequence) Delay() time.Duration { return s.delay }

// Stream lazily yields one EventValue per number, waiting the delay between
// consecutive values, and then one EventCompleted. Cancelling ctx ends the
// stream with EventCancelled before the next value. Each call starts a new
// run from the first number.
func (s *Sequence) Stream(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		total := len(s.numbers)
		for i, n := range s.numbers {
			if ctx.Err() != nil {
				yield(Event{Kind: EventCancelled, Index: i, Total: total})
				return
			}
			if !yield(Event{Kind: EventValue, Value: FormatNumber(n), Index: i + 1, Total: total}) {
				return
			}
			if i < total-1 {
				wait(ctx, s.delay)
			}
		}
		yield(Event{Kind: EventCompleted, Index: total, Total: total})
	}
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
