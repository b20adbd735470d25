package xmlevent

import (
	"errors"
	"io"
)

// Handler consumes streaming XML events.
type Handler interface {
	HandleEvent(ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event) error

// HandleEvent calls f(ev).
//
//nolint:gocritic // events are passed by value throughout the package.
func (f HandlerFunc) HandleEvent(ev Event) error {
	return f(ev)
}

// Source produces streaming XML events. Next returns io.EOF after the last event.
type Source interface {
	Next() (Event, error)
}

// Pump forwards every event from src to h until src is exhausted.
func Pump(src Source, h Handler) error {
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := h.HandleEvent(ev); err != nil {
			return err
		}
	}
}

// Record reads src to the end and returns its events.
func Record(src Source) ([]Event, error) {
	var rec Recorder
	if err := Pump(src, &rec); err != nil {
		return nil, err
	}
	return rec.Events(), nil
}

// Recorder is a Handler that keeps a copy of every event it receives.
type Recorder struct {
	events []Event
}

// HandleEvent records ev.
//
//nolint:gocritic // events are passed by value throughout the package.
func (r *Recorder) HandleEvent(ev Event) error {
	r.events = append(r.events, ev.Clone())
	return nil
}

// Events returns the recorded events.
func (r *Recorder) Events() []Event {
	return r.events
}

// Reset discards the recorded events.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
}

// Span is a balanced run of events that can be replayed into a Handler.
type Span []Event

// Replay forwards the span events to h in order.
func (s Span) Replay(h Handler) error {
	for _, ev := range s {
		if err := h.HandleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// SliceSource is a Source over a fixed slice of events.
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource returns a Source that yields events in order.
func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event or io.EOF.
func (s *SliceSource) Next() (Event, error) {
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}
