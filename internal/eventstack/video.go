package eventstack

import (
	"fmt"

	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mask"
)

// VideoKind is the video capability implementation: evaluate curves, run
// the blueprint, then blend through the event's combined mask if it has
// any.
type VideoKind struct {
	Blender mask.Blender
}

func NewVideoKind(blender mask.Blender) *VideoKind {
	if blender == nil {
		blender = mask.NewDrawBlender()
	}
	return &VideoKind{Blender: blender}
}

func (k *VideoKind) ApplyEvent(ev *event.Event, in *frameprim.VideoFrame, pos int64) (*frameprim.VideoFrame, error) {
	rel := pos - ev.Start
	for _, name := range ev.Curves.Names() {
		v, err := ev.Curves.Value(name, rel)
		if err != nil {
			return in, err
		}
		ev.Blueprint.SetFilter(name, v)
	}

	out, err := ev.Blueprint.RunVideoFilter(in, rel, ev.Length())
	if err != nil {
		return in, fmt.Errorf("video kind: run blueprint: %w", err)
	}

	if len(ev.EventMasks) == 0 {
		return out, nil
	}

	combined, err := k.combinedMask(ev, out.Width, out.Height)
	if err != nil {
		return in, err
	}
	blended, err := k.Blender.Blend(out, in, combined)
	if err != nil {
		return in, fmt.Errorf("video kind: blend: %w", err)
	}
	return blended, nil
}

func (k *VideoKind) combinedMask(ev *event.Event, w, h int) (*mask.Alpha, error) {
	alphas := make([]*mask.Alpha, 0, len(ev.EventMasks))
	for _, desc := range ev.EventMasks {
		creator, err := mask.FromJSON(desc)
		if err != nil {
			return nil, fmt.Errorf("video kind: mask descriptor: %w", err)
		}
		a, err := creator.GetMask(false, false, 1, 1)
		if err != nil {
			return nil, fmt.Errorf("video kind: render mask: %w", err)
		}
		padded := mask.NewAlpha(w, h)
		for y := 0; y < a.Height && y < h; y++ {
			for x := 0; x < a.Width && x < w; x++ {
				padded.Data[y*w+x] = a.ValueAt(x, y)
			}
		}
		alphas = append(alphas, padded)
	}
	return mask.Combine(alphas)
}
