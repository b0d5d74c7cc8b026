// Package eventstack implements the per-clip ordered event-stack
// filter, generalized over a media-kind capability set: one generic
// Stack type with two concrete capability implementations (video,
// audio) rather than an inheritance tree.
package eventstack

import (
	"fmt"
	"sort"
	"sync"

	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/mecerr"
)

// Kind is the capability a media kind must supply: how to apply a single
// effective event to a frame of that kind. VideoKind and AudioKind in
// this package are its two concrete implementations.
type Kind[F any] interface {
	ApplyEvent(ev *event.Event, in F, pos int64) (F, error)
}

// Stack is an ordered collection of events that may not overlap another
// event at the same z layer.
type Stack[F any] struct {
	mu             sync.RWMutex
	events         []*event.Event
	kind           Kind[F]
	editingEventID string
}

// New creates an empty stack driven by the given media-kind capability.
func New[F any](kind Kind[F]) *Stack[F] {
	return &Stack[F]{kind: kind}
}

func (s *Stack[F]) resort() {
	sort.SliceStable(s.events, func(i, j int) bool {
		if s.events[i].Z != s.events[j].Z {
			return s.events[i].Z < s.events[j].Z
		}
		return s.events[i].Start < s.events[j].Start
	})
}

func (s *Stack[F]) findLocked(id string) (int, *event.Event) {
	for i, e := range s.events {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

// validateLocked enforces the stack's uniqueness and no-overlap-at-
// equal-z invariants against every existing event except the one being
// mutated (identified by excludeID, which may be "" for a brand-new
// event).
func (s *Stack[F]) validateLocked(candidate *event.Event, excludeID string) error {
	for _, e := range s.events {
		if e.ID == excludeID {
			continue
		}
		if e.ID == candidate.ID && excludeID == "" {
			return mecerr.Newf(mecerr.AlreadyExists, "eventstack: duplicate event id %q", candidate.ID)
		}
		if e.Z == candidate.Z && event.Overlaps(e, candidate) {
			return mecerr.Newf(mecerr.InvalidArg, "eventstack: event %q at z=%d overlaps existing event %q", candidate.ID, candidate.Z, e.ID)
		}
	}
	return nil
}

// AddEvent inserts a new event, validating the stack's invariants.
// Violating mutations return a typed failure and leave state unchanged.
func (s *Stack[F]) AddEvent(ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(ev, ""); err != nil {
		return err
	}
	s.events = append(s.events, ev)
	s.resort()
	return nil
}

// ChangeEventRange re-validates and applies a new [start,end) to an
// existing event.
func (s *Stack[F]) ChangeEventRange(id string, start, end int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ev := s.findLocked(id)
	if ev == nil {
		return mecerr.Newf(mecerr.NotFound, "eventstack: event %q not found", id)
	}
	if start == end {
		return mecerr.New(mecerr.InvalidArg, "eventstack: start must not equal end")
	}
	if end < start {
		start, end = end, start
	}
	candidate := &event.Event{ID: ev.ID, Start: start, End: end, Z: ev.Z}
	if err := s.validateLocked(candidate, id); err != nil {
		return err
	}
	ev.Start, ev.End = start, end
	s.resort()
	return nil
}

// MoveEvent shifts an event to a new start, keeping its length (spec
// section 4.3, "moveEvent").
func (s *Stack[F]) MoveEvent(id string, newStart int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ev := s.findLocked(id)
	if ev == nil {
		return mecerr.Newf(mecerr.NotFound, "eventstack: event %q not found", id)
	}
	length := ev.Length()
	candidate := &event.Event{ID: ev.ID, Start: newStart, End: newStart + length, Z: ev.Z}
	if err := s.validateLocked(candidate, id); err != nil {
		return err
	}
	ev.Start, ev.End = newStart, newStart+length
	s.resort()
	return nil
}

// RemoveEvent deletes an event by id.
func (s *Stack[F]) RemoveEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ev := s.findLocked(id)
	if ev == nil {
		return mecerr.Newf(mecerr.NotFound, "eventstack: event %q not found", id)
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	return nil
}

// Events returns a snapshot of the stack's events in (z asc, start asc)
// order.
func (s *Stack[F]) Events() []*event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// effectiveLocked returns the events whose [start,end) contains pos, in
// stack order, skipping muted events.
func (s *Stack[F]) effectiveLocked(pos int64) []*event.Event {
	var eff []*event.Event
	for _, e := range s.events {
		if e.Status == event.StatusMuted {
			continue
		}
		if e.Contains(pos) {
			eff = append(eff, e)
		}
	}
	return eff
}

// Apply runs every effective event at pos over in, in stack order, each
// event's output feeding the next event's input. An empty stack is a
// pass-through.
func (s *Stack[F]) Apply(in F, pos int64) (F, error) {
	s.mu.RLock()
	eff := s.effectiveLocked(pos)
	s.mu.RUnlock()

	frame := in
	for _, ev := range eff {
		out, err := s.kind.ApplyEvent(ev, frame, pos)
		if err != nil {
			return frame, fmt.Errorf("eventstack: apply event %q: %w", ev.ID, err)
		}
		frame = out
	}
	return frame, nil
}

// SetEditingEvent records which event id is under interactive edit, a
// hint the host UI layer reads but the engine itself never acts on.
func (s *Stack[F]) SetEditingEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingEventID = id
}

func (s *Stack[F]) EditingEvent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingEventID
}
