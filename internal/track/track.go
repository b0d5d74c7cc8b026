// Package track implements the timeline track type and its overlap
// regions.
package track

import (
	"fmt"
	"sort"
	"sync"

	"github.com/keagan/mec/internal/clip"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
)

// Overlap is the region where two adjacent clips both cover the same
// timeline position. Start and End bound that shared region; FrontClip
// is the clip that starts later (the one fading in), RearClip the one
// that started earlier (fading out).
type Overlap[F any] struct {
	Start, End          int64
	FrontClip, RearClip *clip.Clip[F]
}

func (o *Overlap[F]) Contains(pos int64) bool {
	return pos >= o.Start && pos < o.End
}

// Progress returns how far pos has advanced through the overlap region,
// 0 at Start and approaching 1 at End, for use as a crossfade weight.
func (o *Overlap[F]) Progress(pos int64) float64 {
	span := o.End - o.Start
	if span <= 0 {
		return 0
	}
	return float64(pos-o.Start) / float64(span)
}

// Compositor blends a track's front and rear clips within an overlap
// region. t is Overlap.Progress(pos), 0 meaning fully-rear and
// approaching 1 meaning fully-front.
type Compositor[F any] interface {
	Composite(front, rear F, t float64) (F, error)
}

// Fetcher supplies decoded source frames to clips during ReadFrame; the
// decode pipeline (C3) implements this for a Track at runtime.
type Fetcher[F any] interface {
	Fetch(sourceID string, sourceTimeMs int64) (F, error)
}

// Track is an ordered sequence of non-triple-overlapping clips sharing
// one output format. Its read cursor is a frame index, not a raw
// millisecond position: Seek converts a position to readFrameIndex via
// FrameRate, and each ReadFrame call steps that index forward (or
// backward, in Reverse) so repeated calls walk the timeline without the
// caller supplying a new position each time. readClipIter and
// readOverlapIter cache the clip/overlap the cursor currently sits
// inside so successive calls don't rescan the whole track.
type Track[F any] struct {
	mu         sync.RWMutex
	ID         string
	OutWidth   int
	OutHeight  int
	FrameRate  frameprim.Rational
	Direction  clip.Direction
	clips      []*clip.Clip[F]
	overlaps   []*Overlap[F]
	compositor Compositor[F]

	readFrameIndex  int64
	readClipIter    int
	readOverlapIter int
}

func New[F any](id string, outWidth, outHeight int, frameRate frameprim.Rational, compositor Compositor[F]) *Track[F] {
	return &Track[F]{
		ID:         id,
		OutWidth:   outWidth,
		OutHeight:  outHeight,
		FrameRate:  frameRate,
		compositor: compositor,
	}
}

func (t *Track[F]) sortLocked() {
	sort.SliceStable(t.clips, func(i, j int) bool { return t.clips[i].Start < t.clips[j].Start })
}

// UpdateOverlaps recomputes the track's overlap regions from its current
// clips via a sweep over clip boundaries, rejecting any arrangement
// where three or more clips cover the same position.
func (t *Track[F]) UpdateOverlaps() error {
	overlaps, err := computeOverlaps(t.clips)
	if err != nil {
		return err
	}
	t.overlaps = overlaps
	return nil
}

func computeOverlaps[F any](clips []*clip.Clip[F]) ([]*Overlap[F], error) {
	if len(clips) < 2 {
		return nil, nil
	}
	bounds := make(map[int64]struct{})
	for _, c := range clips {
		bounds[c.Start] = struct{}{}
		bounds[c.End()] = struct{}{}
	}
	points := make([]int64, 0, len(bounds))
	for p := range bounds {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	var overlaps []*Overlap[F]
	var cur *Overlap[F]
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		var active []*clip.Clip[F]
		for _, c := range clips {
			if c.Start <= lo && hi <= c.End() {
				active = append(active, c)
			}
		}
		switch len(active) {
		case 0, 1:
			cur = nil
		case 2:
			rear, front := active[0], active[1]
			if front.Start < rear.Start {
				rear, front = front, rear
			}
			if cur != nil && cur.FrontClip.ID == front.ID && cur.RearClip.ID == rear.ID {
				cur.End = hi
			} else {
				cur = &Overlap[F]{Start: lo, End: hi, FrontClip: front, RearClip: rear}
				overlaps = append(overlaps, cur)
			}
		default:
			return nil, mecerr.Newf(mecerr.InvalidArg, "track: %d clips overlap at position %d, at most 2 are allowed", len(active), lo)
		}
	}
	return overlaps, nil
}

// Insert adds a clip to the track, rejecting it if doing so would create
// a triple overlap.
func (t *Track[F]) Insert(c *clip.Clip[F]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidate := append(append([]*clip.Clip[F]{}, t.clips...), c)
	sort.SliceStable(candidate, func(i, j int) bool { return candidate[i].Start < candidate[j].Start })
	if _, err := computeOverlaps(candidate); err != nil {
		return err
	}
	c.TrackID = t.ID
	t.clips = candidate
	defer t.invalidateIteratorsLocked()
	return t.UpdateOverlaps()
}

// Move relocates a clip to a new timeline start, keeping its duration,
// subject to the same no-triple-overlap check as Insert.
func (t *Track[F]) Move(id string, newStart int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.findLocked(id)
	if c == nil {
		return mecerr.Newf(mecerr.NotFound, "track: clip %q not found", id)
	}
	prevStart := c.Start
	c.Start = newStart
	if _, err := computeOverlaps(t.clips); err != nil {
		c.Start = prevStart
		return err
	}
	t.sortLocked()
	defer t.invalidateIteratorsLocked()
	return t.UpdateOverlaps()
}

// ChangeRange adjusts a clip's source trim offsets, re-validating
// overlaps afterward since that changes the clip's timeline extent.
func (t *Track[F]) ChangeRange(id string, startOffset, endOffset int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.findLocked(id)
	if c == nil {
		return mecerr.Newf(mecerr.NotFound, "track: clip %q not found", id)
	}
	if err := c.ChangeRange(startOffset, endOffset); err != nil {
		return err
	}
	if _, err := computeOverlaps(t.clips); err != nil {
		return err
	}
	defer t.invalidateIteratorsLocked()
	return t.UpdateOverlaps()
}

// Remove deletes a clip from the track.
func (t *Track[F]) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, c := range t.clips {
		if c.ID == id {
			t.clips = append(t.clips[:i], t.clips[i+1:]...)
			c.TrackID = ""
			defer t.invalidateIteratorsLocked()
			return t.UpdateOverlaps()
		}
	}
	return mecerr.Newf(mecerr.NotFound, "track: clip %q not found", id)
}

func (t *Track[F]) findLocked(id string) *clip.Clip[F] {
	for _, c := range t.clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Clips returns a snapshot of the track's clips in timeline order.
func (t *Track[F]) Clips() []*clip.Clip[F] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*clip.Clip[F], len(t.clips))
	copy(out, t.clips)
	return out
}

// Overlaps returns a snapshot of the track's current overlap regions.
func (t *Track[F]) Overlaps() []*Overlap[F] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Overlap[F], len(t.overlaps))
	copy(out, t.overlaps)
	return out
}

// frameIndexFor quantizes a millisecond position down to the frame
// index it falls within at fr.
func frameIndexFor(fr frameprim.Rational, pos int64) int64 {
	if fr.Num <= 0 || fr.Den <= 0 {
		return pos
	}
	return pos * fr.Num / (fr.Den * 1000)
}

// posFor is the inverse of frameIndexFor: the millisecond position a
// frame index represents at fr.
func posFor(fr frameprim.Rational, frameIndex int64) int64 {
	if fr.Num <= 0 || fr.Den <= 0 {
		return frameIndex
	}
	return frameIndex * 1000 * fr.Den / fr.Num
}

// Seek repositions the track's read cursor to an arbitrary position,
// used by the decode pipeline's seek handling. It converts pos to a
// frame index at the track's FrameRate and primes the clip/overlap
// iterators so the next ReadFrame call doesn't have to rescan the whole
// track.
func (t *Track[F]) Seek(pos int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readFrameIndex = frameIndexFor(t.FrameRate, pos)
	t.primeIteratorsLocked()
}

// primeIteratorsLocked positions readClipIter/readOverlapIter at the
// clip/overlap the cursor's current position falls in, per direction:
// forward seeks settle on the first clip whose extent the cursor hasn't
// yet passed, reverse seeks on the last one it has already reached.
func (t *Track[F]) primeIteratorsLocked() {
	pos := posFor(t.FrameRate, t.readFrameIndex)
	t.readClipIter = -1
	t.readOverlapIter = -1

	if t.Direction == clip.Reverse {
		for i := len(t.clips) - 1; i >= 0; i-- {
			if t.clips[i].Start <= pos {
				t.readClipIter = i
				break
			}
		}
		for i := len(t.overlaps) - 1; i >= 0; i-- {
			if t.overlaps[i].Start <= pos {
				t.readOverlapIter = i
				break
			}
		}
		return
	}

	for i, c := range t.clips {
		if pos < c.End() {
			t.readClipIter = i
			break
		}
	}
	for i, ov := range t.overlaps {
		if pos < ov.End {
			t.readOverlapIter = i
			break
		}
	}
}

// invalidateIteratorsLocked forces the next ReadFrame call to rescan the
// track from scratch, used after any structural mutation.
func (t *Track[F]) invalidateIteratorsLocked() {
	t.primeIteratorsLocked()
}

// ReadFrame produces the track's output frame at its current read
// cursor, fetching source frames through fetcher, compositing overlap
// regions, and running each clip's own EventStack filter. After serving
// the frame it steps readFrameIndex one frame forward (Direction ==
// Forward) or backward (Reverse), so repeated ReadFrame calls with no
// intervening Seek walk the timeline on their own. It returns
// mecerr.NotFound if the cursor sits in a gap covered by no clip.
func (t *Track[F]) ReadFrame(fetcher Fetcher[F]) (F, error) {
	t.mu.Lock()
	pos := posFor(t.FrameRate, t.readFrameIndex)
	ov, c := t.lookupLocked(pos)
	if t.Direction == clip.Reverse {
		t.readFrameIndex--
	} else {
		t.readFrameIndex++
	}
	t.mu.Unlock()

	if ov != nil {
		return t.readOverlap(ov, pos, fetcher)
	}
	if c != nil {
		return t.readClip(c, pos, fetcher)
	}
	var zero F
	return zero, mecerr.Newf(mecerr.NotFound, "track: no clip covers position %d", pos)
}

// lookupLocked resolves pos to the overlap or clip that contains it,
// walking forward/backward from the cached iterator positions rather
// than rescanning from the start whenever the cursor has only advanced
// by one frame since the last call.
func (t *Track[F]) lookupLocked(pos int64) (*Overlap[F], *clip.Clip[F]) {
	if i := t.advanceOverlapLocked(pos); i >= 0 {
		return t.overlaps[i], nil
	}
	if i := t.advanceClipLocked(pos); i >= 0 {
		return nil, t.clips[i]
	}
	return nil, nil
}

func (t *Track[F]) advanceOverlapLocked(pos int64) int {
	i := t.readOverlapIter
	for i >= 0 && i < len(t.overlaps) && t.overlaps[i].End <= pos {
		i++
	}
	for i >= 1 && t.overlaps[i-1].Start > pos {
		i--
	}
	if i < 0 || i >= len(t.overlaps) || !t.overlaps[i].Contains(pos) {
		i = -1
		for j, ov := range t.overlaps {
			if ov.Contains(pos) {
				i = j
				break
			}
		}
	}
	t.readOverlapIter = i
	return i
}

func (t *Track[F]) advanceClipLocked(pos int64) int {
	i := t.readClipIter
	for i >= 0 && i < len(t.clips) && t.clips[i].End() <= pos {
		i++
	}
	for i >= 1 && t.clips[i-1].Start > pos {
		i--
	}
	if i < 0 || i >= len(t.clips) || !t.clips[i].Contains(pos) {
		i = -1
		for j, c := range t.clips {
			if c.Contains(pos) {
				i = j
				break
			}
		}
	}
	t.readClipIter = i
	return i
}

func (t *Track[F]) readClip(c *clip.Clip[F], pos int64, fetcher Fetcher[F]) (F, error) {
	var zero F
	srcTime, err := c.SourceTime(pos)
	if err != nil {
		return zero, err
	}
	raw, err := fetcher.Fetch(c.Source.ID, srcTime)
	if err != nil {
		return zero, fmt.Errorf("track: fetch: %w", err)
	}
	out, err := c.Filter.Apply(raw, pos-c.Start)
	if err != nil {
		return zero, fmt.Errorf("track: filter: %w", err)
	}
	return out, nil
}

func (t *Track[F]) readOverlap(ov *Overlap[F], pos int64, fetcher Fetcher[F]) (F, error) {
	var zero F
	if t.compositor == nil {
		return t.readClip(ov.FrontClip, pos, fetcher)
	}
	front, err := t.readClip(ov.FrontClip, pos, fetcher)
	if err != nil {
		return zero, err
	}
	rear, err := t.readClip(ov.RearClip, pos, fetcher)
	if err != nil {
		return zero, err
	}
	out, err := t.compositor.Composite(front, rear, ov.Progress(pos))
	if err != nil {
		return zero, fmt.Errorf("track: composite: %w", err)
	}
	return out, nil
}
