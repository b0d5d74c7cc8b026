package frameprim

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// ScaleToCache downsizes a decoded frame to a small grayscale thumbnail
// before it is stored in the scrub-seek frame cache, keeping that cache
// cheap to hold in memory.
func ScaleToCache(f *VideoFrame, maxW, maxH uint) *VideoFrame {
	if f == nil || len(f.Data) == 0 || f.Width <= 0 || f.Height <= 0 {
		return f
	}

	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Data)

	scaled := resize.Thumbnail(maxW, maxH, img, resize.Bilinear)
	bounds := scaled.Bounds()

	out := &VideoFrame{
		PixFmt:      f.PixFmt,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ColorSpace:  f.ColorSpace,
		TimestampMs: f.TimestampMs,
		Data:        make([]byte, bounds.Dx()*bounds.Dy()),
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(scaled.At(x, y)).(color.Gray)
			out.Data[i] = g.Y
			i++
		}
	}
	return out
}
