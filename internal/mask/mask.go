// Package mask implements the event-level and per-node compositing
// masks an Event owns, plus the opaque MaskCreator and Blender
// collaborator contracts.
package mask

import (
	"fmt"
	"image"
)

// Descriptor is the JSON-serializable mask description an event stores.
// Kind selects which Creator FromJSON builds; Rect and Params are
// interpreted by that creator. Indices into a stack's mask array are
// stable addressing handles.
type Descriptor struct {
	Kind    string         `json:"kind"`
	Rect    image.Rectangle `json:"rect"`
	Params  map[string]float64 `json:"params,omitempty"`
}

// Alpha is a float32 alpha image, the shape the opaque mask-creator
// collaborator returns from GetMask.
type Alpha struct {
	Width, Height int
	Data          []float32 // row-major, values in [0,1]
}

// NewAlpha allocates a zero-filled alpha image.
func NewAlpha(w, h int) *Alpha {
	return &Alpha{Width: w, Height: h, Data: make([]float32, w*h)}
}

func (a *Alpha) at(x, y int) float32 {
	if x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return 0
	}
	return a.Data[y*a.Width+x]
}

func (a *Alpha) set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return
	}
	a.Data[y*a.Width+x] = v
}

// ToGray converts the alpha image to a standard library image.Alpha so it
// can drive golang.org/x/image/draw.DrawMask.
func (a *Alpha) ToGray() *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, a.Width, a.Height))
	for i, v := range a.Data {
		scaled := v
		if scaled < 0 {
			scaled = 0
		}
		if scaled > 1 {
			scaled = 1
		}
		img.Pix[i] = uint8(scaled * 255)
	}
	return img
}

// Creator is the opaque mask-creator collaborator contract: build from a
// Descriptor, then render to a float32 alpha image at a given scale.
type Creator interface {
	GetMask(antialias, inverted bool, scaleX, scaleY float64) (*Alpha, error)
}

// FromJSON builds a Creator from a Descriptor. Only "rect" (a solid
// rectangle of alpha) is implemented directly; any other kind is expected
// to be supplied by the real mask-creator library this module treats as an
// external collaborator, so unknown kinds return an error rather than a
// best-effort guess.
func FromJSON(d Descriptor) (Creator, error) {
	switch d.Kind {
	case "rect", "":
		return &rectCreator{rect: d.Rect}, nil
	default:
		return nil, fmt.Errorf("mask: unknown descriptor kind %q", d.Kind)
	}
}

type rectCreator struct {
	rect image.Rectangle
}

func (r *rectCreator) GetMask(antialias, inverted bool, scaleX, scaleY float64) (*Alpha, error) {
	w := int(float64(r.rect.Max.X) * scaleX)
	h := int(float64(r.rect.Max.Y) * scaleY)
	if w <= 0 {
		w = r.rect.Max.X
	}
	if h <= 0 {
		h = r.rect.Max.Y
	}
	a := NewAlpha(w, h)
	x0 := int(float64(r.rect.Min.X) * scaleX)
	y0 := int(float64(r.rect.Min.Y) * scaleY)
	x1 := int(float64(r.rect.Max.X) * scaleX)
	y1 := int(float64(r.rect.Max.Y) * scaleY)
	inside := float32(1.0)
	outside := float32(0.0)
	if inverted {
		inside, outside = outside, inside
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				a.set(x, y, inside)
			} else {
				a.set(x, y, outside)
			}
		}
	}
	return a, nil
}

// Combine computes the element-wise max over a set of alpha masks. All
// masks must share dimensions.
func Combine(masks []*Alpha) (*Alpha, error) {
	if len(masks) == 0 {
		return nil, nil
	}
	w, h := masks[0].Width, masks[0].Height
	out := NewAlpha(w, h)
	for _, m := range masks {
		if m.Width != w || m.Height != h {
			return nil, fmt.Errorf("mask: combine requires matching dimensions, got %dx%d and %dx%d", w, h, m.Width, m.Height)
		}
		for i, v := range m.Data {
			if v > out.Data[i] {
				out.Data[i] = v
			}
		}
	}
	return out, nil
}

// ValueAt samples the alpha at a pixel, used by tests.
func (a *Alpha) ValueAt(x, y int) float32 { return a.at(x, y) }
