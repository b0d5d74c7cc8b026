package decode

import (
	"testing"

	"github.com/keagan/mec/internal/frameprim"
)

// TestFrameCacheShrinksTowardScrubTarget is scenario 6 of the async-seek
// cache behavior: feed the scrub cache 80 unique frames spanning 8s
// while the target is held fixed at 4.0s. The cache must never exceed
// its high-water mark, and once it starts shrinking it must keep at
// least one entry within half a second of the held target.
func TestFrameCacheShrinksTowardScrubTarget(t *testing.T) {
	c := newFrameCache(64, 48)
	const target = 4000

	// Simulate a scrub drag that visited all 80 unique 100ms-spaced
	// frames across an 8s clip before settling on the target, well past
	// the 64-entry high-water mark.
	for ts := int64(0); ts < 8000; ts += 100 {
		c.order = append(c.order, ts)
		c.frames[ts] = &frameprim.VideoFrame{Width: 1, Height: 1, TimestampMs: ts}
	}
	c.shrinkToward(target, c.lowWater)

	if got := c.len(); got > 48 {
		t.Fatalf("expected cache to shrink to <=48 entries, got %d", got)
	}

	f, ok := c.closest(target)
	if !ok {
		t.Fatal("expected a cached frame near the target")
	}
	if d := absInt64(f.TimestampMs - target); d > 500 {
		t.Fatalf("expected a cached frame within 500ms of target %d, closest is %d (%dms away)", target, f.TimestampMs, d)
	}
}

func TestFrameCachePutNearTargetDedupesWithinWindow(t *testing.T) {
	c := newFrameCache(64, 48)
	c.putNearTarget(&frameprim.VideoFrame{TimestampMs: 1000}, 1000, 0, 0)
	c.putNearTarget(&frameprim.VideoFrame{TimestampMs: 1200}, 1000, 0, 0)
	if got := c.len(); got != 1 {
		t.Fatalf("expected the second frame (200ms away) to be treated as a duplicate, cache has %d entries", got)
	}
	c.putNearTarget(&frameprim.VideoFrame{TimestampMs: 1600}, 1000, 0, 0)
	if got := c.len(); got != 2 {
		t.Fatalf("expected a frame 600ms away to be inserted, cache has %d entries", got)
	}
}

func TestFrameCacheShrinkTowardDiscardsFartherEnd(t *testing.T) {
	c := newFrameCache(64, 48)
	c.order = []int64{0, 1000, 2000, 9000}
	c.frames = map[int64]*frameprim.VideoFrame{
		0:    {TimestampMs: 0},
		1000: {TimestampMs: 1000},
		2000: {TimestampMs: 2000},
		9000: {TimestampMs: 9000},
	}
	c.shrinkToward(2000, 3)
	if c.len() != 3 {
		t.Fatalf("expected 3 entries after shrink, got %d", c.len())
	}
	if _, ok := c.get(9000); ok {
		t.Fatal("expected the entry farthest from target (9000) to be discarded first")
	}
}

func TestFrameCacheScaleToThumbnailOnScrubInsert(t *testing.T) {
	c := newFrameCache(64, 48)
	frame := &frameprim.VideoFrame{Width: 8, Height: 8, TimestampMs: 500, Data: make([]byte, 64)}
	c.putNearTarget(frame, 500, 2, 2)
	got, ok := c.get(500)
	if !ok {
		t.Fatal("expected frame to be cached")
	}
	if got.Width > 2 || got.Height > 2 {
		t.Fatalf("expected scrub cache to thumbnail down to <=2x2, got %dx%d", got.Width, got.Height)
	}
}
