// Package curve implements the named scalar keypoint curves that drive
// an event's blueprint inputs.
package curve

import (
	"fmt"
	"sort"
)

// Keypoint is a single (x, value) sample of a curve.
type Keypoint struct {
	X     int64
	Value float64
}

// Curve is an ordered set of keypoints over a bounded x-range, linearly
// interpolated between neighbors and clamped outside the range.
type Curve struct {
	Name      string
	Keypoints []Keypoint
}

// sorted returns a copy of the keypoints ordered by X, used defensively so
// callers that append out of order still evaluate correctly.
func (c *Curve) sorted() []Keypoint {
	kp := append([]Keypoint(nil), c.Keypoints...)
	sort.Slice(kp, func(i, j int) bool { return kp[i].X < kp[j].X })
	return kp
}

// Value evaluates the curve at x using linear interpolation between the two
// bracketing keypoints, clamping to the first/last value outside the range.
func (c *Curve) Value(x int64) float64 {
	kp := c.sorted()
	if len(kp) == 0 {
		return 0
	}
	if x <= kp[0].X {
		return kp[0].Value
	}
	if x >= kp[len(kp)-1].X {
		return kp[len(kp)-1].Value
	}
	for i := 1; i < len(kp); i++ {
		if x <= kp[i].X {
			lo, hi := kp[i-1], kp[i]
			if hi.X == lo.X {
				return lo.Value
			}
			t := float64(x-lo.X) / float64(hi.X-lo.X)
			return lo.Value + t*(hi.Value-lo.Value)
		}
	}
	return kp[len(kp)-1].Value
}

// Span returns the curve's x-range, which must equal an owning event's
// end-start.
func (c *Curve) Span() int64 {
	kp := c.sorted()
	if len(kp) == 0 {
		return 0
	}
	return kp[len(kp)-1].X - kp[0].X
}

// Set is a named collection of curves scoped to a single event's length.
type Set struct {
	Curves map[string]*Curve
}

// NewSet creates an empty curve set.
func NewSet() *Set {
	return &Set{Curves: make(map[string]*Curve)}
}

// Add registers a curve under its own name.
func (s *Set) Add(c *Curve) {
	if s.Curves == nil {
		s.Curves = make(map[string]*Curve)
	}
	s.Curves[c.Name] = c
}

// Value evaluates the named curve at x, returning an error if the curve is
// not present so callers (the blueprint input binder) can distinguish a
// missing curve from a legitimately zero value.
func (s *Set) Value(name string, x int64) (float64, error) {
	c, ok := s.Curves[name]
	if !ok {
		return 0, fmt.Errorf("curve: unknown curve %q", name)
	}
	return c.Value(x), nil
}

// Names returns every curve name in the set, in stable sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Curves))
	for n := range s.Curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
