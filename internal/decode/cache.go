package decode

import (
	"sort"

	"github.com/keagan/mec/internal/frameprim"
)

// scrubDedupeWindowMs is how close two cached timestamps have to be
// before a newly decoded scrub frame is treated as a duplicate of one
// already cached and dropped.
const scrubDedupeWindowMs = 500

// frameCache holds recently decoded video frames keyed by timestamp, so
// a scrub seek landing back on an already-decoded position is free. It
// fixes the high-water mark at 64 entries by default, shrinking to 48
// once it starts evicting, which avoids thrashing at exactly the cap
// during a scrub that oscillates by one frame.
type frameCache struct {
	highWater int
	lowWater  int
	order     []int64
	frames    map[int64]*frameprim.VideoFrame
}

func newFrameCache(highWater, lowWater int) *frameCache {
	if lowWater <= 0 || lowWater >= highWater {
		lowWater = highWater
	}
	return &frameCache{
		highWater: highWater,
		lowWater:  lowWater,
		frames:    make(map[int64]*frameprim.VideoFrame),
	}
}

// get looks up the frame cached at exactly ts, used by the synchronous
// seek-and-wait path where the caller needs the specific frame it
// asked for.
func (c *frameCache) get(ts int64) (*frameprim.VideoFrame, bool) {
	f, ok := c.frames[ts]
	return f, ok
}

// closest returns the cached frame whose timestamp is nearest target,
// used by the scrub render path, which wants whatever is available
// rather than an exact hit.
func (c *frameCache) closest(target int64) (*frameprim.VideoFrame, bool) {
	if len(c.order) == 0 {
		return nil, false
	}
	bestTs := c.order[0]
	bestDist := absInt64(bestTs - target)
	for _, ts := range c.order[1:] {
		if d := absInt64(ts - target); d < bestDist {
			bestDist, bestTs = d, ts
		}
	}
	return c.frames[bestTs], true
}

func (c *frameCache) put(f *frameprim.VideoFrame) {
	ts := f.TimestampMs
	if _, exists := c.frames[ts]; !exists {
		c.order = append(c.order, ts)
	}
	c.frames[ts] = f
	if len(c.order) > c.highWater {
		c.shrinkTo(c.lowWater)
	}
}

// putNearTarget inserts f the way the scrub render task's cache does:
// a frame within scrubDedupeWindowMs of one already cached is a
// duplicate and is skipped, maxW/maxH (when both positive) thumbnail
// the frame down before it's stored, and once the cache exceeds
// highWater it is shrunk toward target by discarding from whichever end
// of the sorted timestamp range is farther away, rather than always
// dropping the oldest entry.
func (c *frameCache) putNearTarget(f *frameprim.VideoFrame, target int64, maxW, maxH uint) {
	ts := f.TimestampMs
	for _, existing := range c.order {
		if absInt64(existing-ts) <= scrubDedupeWindowMs {
			return
		}
	}
	if maxW > 0 && maxH > 0 {
		f = frameprim.ScaleToCache(f, maxW, maxH)
	}
	c.order = append(c.order, ts)
	c.frames[ts] = f
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })
	if len(c.order) > c.highWater {
		c.shrinkToward(target, c.lowWater)
	}
}

func (c *frameCache) shrinkTo(keep int) {
	for len(c.order) > keep {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.frames, oldest)
	}
}

// shrinkToward discards entries from whichever end of the sorted
// timestamp range sits farther from pos until keep entries remain.
func (c *frameCache) shrinkToward(pos int64, keep int) {
	for len(c.order) > keep {
		first, last := c.order[0], c.order[len(c.order)-1]
		if absInt64(first-pos) >= absInt64(last-pos) {
			delete(c.frames, first)
			c.order = c.order[1:]
		} else {
			delete(c.frames, last)
			c.order = c.order[:len(c.order)-1]
		}
	}
}

func (c *frameCache) flush() {
	c.order = nil
	c.frames = make(map[int64]*frameprim.VideoFrame)
}

func (c *frameCache) len() int { return len(c.order) }

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
