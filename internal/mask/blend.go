package mask

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/keagan/mec/internal/frameprim"
)

// Blender is the opaque video compositing collaborator: it composites
// overlay over base wherever the combined mask is non-zero.
type Blender interface {
	Blend(base, overlay *frameprim.VideoFrame, combined *Alpha) (*frameprim.VideoFrame, error)
}

// DrawBlender implements Blender on top of golang.org/x/image/draw, so
// the per-pixel compositing loop is real image-library code rather than
// a hand-rolled nested loop.
type DrawBlender struct{}

func NewDrawBlender() *DrawBlender { return &DrawBlender{} }

func (b *DrawBlender) Blend(base, overlay *frameprim.VideoFrame, combined *Alpha) (*frameprim.VideoFrame, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil || combined == nil {
		return base, nil
	}

	w, h := base.Width, base.Height
	dst := image.NewGray(image.Rect(0, 0, w, h))
	copy(dst.Pix, base.Data)

	src := image.NewGray(image.Rect(0, 0, overlay.Width, overlay.Height))
	copy(src.Pix, overlay.Data)

	maskImg := combined.ToGray()

	xdraw.DrawMask(dst, dst.Bounds(), src, image.Point{}, maskImg, image.Point{}, xdraw.Over)

	out := base.Clone()
	out.Data = dst.Pix
	return out, nil
}
