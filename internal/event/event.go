// Package event implements the time-bounded, z-layered activation
// record an EventStack holds, along with its on-disk JSON schema.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/curve"
	"github.com/keagan/mec/internal/mask"
)

// Status distinguishes an active event from one muted in place.
type Status int

const (
	StatusActive Status = iota
	StatusMuted
)

// Event is a time-bounded record [Start, End) at layer Z owning one
// blueprint, one curve set, and ordered mask arrays.
type Event struct {
	ID       string
	Start    int64 // timeline ms, relative to the owning clip
	End      int64
	Z        int
	Status   Status
	Blueprint blueprint.Runner
	Curves    *curve.Set

	// EventMasks are event-level mask descriptors; index is the stable
	// addressing handle referenced by callers.
	EventMasks []mask.Descriptor
	// EffectMaskTable maps a blueprint node id to its own ordered mask
	// descriptor list.
	EffectMaskTable map[string][]mask.Descriptor
}

// New constructs an Event, swapping Start/End silently if given in
// reverse order. An empty id is replaced with a fresh uuid.
func New(id string, start, end int64, z int, bp blueprint.Runner, curves *curve.Set) (*Event, error) {
	if start == end {
		return nil, fmt.Errorf("event: start must not equal end")
	}
	if end < start {
		start, end = end, start
	}
	if id == "" {
		id = uuid.NewString()
	}
	if curves == nil {
		curves = curve.NewSet()
	}
	return &Event{
		ID:              id,
		Start:           start,
		End:             end,
		Z:               z,
		Status:          StatusActive,
		Blueprint:       bp,
		Curves:          curves,
		EffectMaskTable: make(map[string][]mask.Descriptor),
	}, nil
}

// Contains reports whether the timeline-relative position pos falls in the
// event's half-open interval.
func (e *Event) Contains(pos int64) bool {
	return pos >= e.Start && pos < e.End
}

// Overlaps reports whether e and o, both at the same z, would violate
// the no-overlap-at-equal-z invariant: strictly
// !(a.end <= b.start || b.end <= a.start).
func Overlaps(a, b *Event) bool {
	return !(a.End <= b.Start || b.End <= a.Start)
}

// Length returns End-Start, which must equal the curve set's x-span (spec
// section 3, Event invariants).
func (e *Event) Length() int64 { return e.End - e.Start }

// AddMask appends or inserts an event-level mask descriptor. An index of
// -1 or len(EventMasks) appends; any other in-range index inserts there.
func (e *Event) AddMask(index int, d mask.Descriptor) int {
	if index < 0 || index == len(e.EventMasks) {
		e.EventMasks = append(e.EventMasks, d)
		return len(e.EventMasks) - 1
	}
	e.EventMasks = append(e.EventMasks[:index], append([]mask.Descriptor{d}, e.EventMasks[index:]...)...)
	return index
}

// RemoveMask removes the event-level mask at index. Masks below index
// keep their indices; masks after it shift down by one.
func (e *Event) RemoveMask(index int) error {
	if index < 0 || index >= len(e.EventMasks) {
		return fmt.Errorf("event: mask index %d out of range", index)
	}
	e.EventMasks = append(e.EventMasks[:index], e.EventMasks[index+1:]...)
	return nil
}

// JSON mirrors the event's on-disk schema: required id, start, end, z,
// bp, kp; optional event_masks, effect_mask_table on video events.
type JSON struct {
	ID              string                        `json:"id"`
	Start           int64                         `json:"start"`
	End             int64                         `json:"end"`
	Z               int                           `json:"z"`
	BP              json.RawMessage               `json:"bp"`
	BPKind          string                        `json:"bp_kind"`
	KP              map[string][]curve.Keypoint   `json:"kp"`
	EventMasks      []mask.Descriptor             `json:"event_masks,omitempty"`
	EffectMaskTable []nodeMaskEntry               `json:"effect_mask_table,omitempty"`
}

type nodeMaskEntry struct {
	NodeID string             `json:"node_id"`
	Masks  []mask.Descriptor  `json:"masks"`
}

// ToJSON serializes the event to its on-disk form.
func (e *Event) ToJSON() (*JSON, error) {
	bp, err := e.Blueprint.Serialize()
	if err != nil {
		return nil, fmt.Errorf("event: serialize blueprint: %w", err)
	}
	kp := make(map[string][]curve.Keypoint)
	for _, name := range e.Curves.Names() {
		kp[name] = e.Curves.Curves[name].Keypoints
	}
	var table []nodeMaskEntry
	for nodeID, masks := range e.EffectMaskTable {
		table = append(table, nodeMaskEntry{NodeID: nodeID, Masks: masks})
	}
	return &JSON{
		ID:              e.ID,
		Start:           e.Start,
		End:             e.End,
		Z:               e.Z,
		BP:              bp,
		KP:              kp,
		EventMasks:      e.EventMasks,
		EffectMaskTable: table,
	}, nil
}

// FromJSON restores an Event using bpFactory to rebuild its blueprint
// runner from the stored "bp" subtree.
func FromJSON(j *JSON, bpFactory blueprint.Factory) (*Event, error) {
	if j.ID == "" || j.Start == j.End {
		return nil, fmt.Errorf("event: invalid JSON: missing id or zero-length range")
	}
	bp, err := bpFactory(j.BPKind, j.ID, j.BP)
	if err != nil {
		return nil, fmt.Errorf("event: rebuild blueprint: %w", err)
	}
	curves := curve.NewSet()
	for name, kps := range j.KP {
		curves.Add(&curve.Curve{Name: name, Keypoints: kps})
	}
	ev, err := New(j.ID, j.Start, j.End, j.Z, bp, curves)
	if err != nil {
		return nil, err
	}
	ev.EventMasks = j.EventMasks
	for _, entry := range j.EffectMaskTable {
		ev.EffectMaskTable[entry.NodeID] = entry.Masks
	}
	return ev, nil
}
