// Package clip implements the timeline clip type: a placement of a
// portion of a source media on a track's timeline.
package clip

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/keagan/mec/internal/eventstack"
	"github.com/keagan/mec/internal/mecerr"
)

// Direction is the playback direction a Clip or Track reads in.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Source is the immutable descriptor a Clip holds a shared handle to.
// The engine never mutates a Source; it is owned by whatever loaded the
// project.
type Source struct {
	ID         string
	DurationMs int64
}

// Clip is a segment of a source media on the timeline, generic over the
// decoded frame kind its EventStack filter operates on.
type Clip[F any] struct {
	ID          string
	Source      Source
	Start       int64 // timeline start, ms
	StartOffset int64 // ms trimmed from the source's head
	EndOffset   int64 // ms trimmed from the source's tail
	Direction   Direction
	TrackID     string // empty when not inserted into a Track
	Filter      *eventstack.Stack[F]
}

// New constructs a Clip, clamping a negative EndOffset to 0 rather than
// erroring and validating the remaining invariants.
func New[F any](id string, src Source, start, startOffset, endOffset int64, dir Direction, kind eventstack.Kind[F]) (*Clip[F], error) {
	if id == "" {
		id = uuid.NewString()
	}
	if startOffset < 0 {
		startOffset = 0
	}
	if endOffset < 0 {
		endOffset = 0
	}
	c := &Clip[F]{
		ID:          id,
		Source:      src,
		Start:       start,
		StartOffset: startOffset,
		EndOffset:   endOffset,
		Direction:   dir,
		Filter:      eventstack.New(kind),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Duration returns sourceDuration - startOffset - endOffset.
func (c *Clip[F]) Duration() int64 {
	return c.Source.DurationMs - c.StartOffset - c.EndOffset
}

// End returns Start + Duration.
func (c *Clip[F]) End() int64 {
	return c.Start + c.Duration()
}

// Validate enforces the Clip invariants: duration > 0; 0 <= startOffset,
// 0 <= endOffset; startOffset + endOffset < sourceDuration.
func (c *Clip[F]) Validate() error {
	if c.StartOffset < 0 || c.EndOffset < 0 {
		return mecerr.New(mecerr.InvalidArg, "clip: offsets must be non-negative")
	}
	if c.StartOffset+c.EndOffset >= c.Source.DurationMs {
		return mecerr.New(mecerr.InvalidArg, "clip: offsets consume the entire source duration")
	}
	if c.Duration() <= 0 {
		return mecerr.New(mecerr.InvalidArg, "clip: duration must be positive")
	}
	return nil
}

// Contains reports whether the timeline position pos falls within
// [Start, End).
func (c *Clip[F]) Contains(pos int64) bool {
	return pos >= c.Start && pos < c.End()
}

// SourceTime maps a timeline position within the clip to a source-media
// position, honoring playback direction.
func (c *Clip[F]) SourceTime(pos int64) (int64, error) {
	if !c.Contains(pos) {
		return 0, fmt.Errorf("clip: position %d outside clip [%d,%d)", pos, c.Start, c.End())
	}
	rel := pos - c.Start
	switch c.Direction {
	case Forward:
		return c.StartOffset + rel, nil
	case Reverse:
		return c.Source.DurationMs - c.EndOffset - rel, nil
	default:
		return 0, fmt.Errorf("clip: unknown direction %d", c.Direction)
	}
}

// ChangeRange adjusts the source-offset endpoints in place, clamping a
// negative endOffset to 0 and re-validating.
func (c *Clip[F]) ChangeRange(startOffset, endOffset int64) error {
	if startOffset < 0 {
		startOffset = 0
	}
	if endOffset < 0 {
		endOffset = 0
	}
	prevStart, prevEnd := c.StartOffset, c.EndOffset
	c.StartOffset, c.EndOffset = startOffset, endOffset
	if err := c.Validate(); err != nil {
		c.StartOffset, c.EndOffset = prevStart, prevEnd
		return err
	}
	return nil
}
