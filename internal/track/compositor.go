package track

import (
	"encoding/binary"

	"github.com/keagan/mec/internal/frameprim"
)

// VideoCrossfade linearly blends two video frames byte-for-byte,
// weighted by the overlap progress t. It assumes both frames share the
// same pixel format and dimensions, which holds for any two clips on
// the same Track since they share its OutWidth/OutHeight.
type VideoCrossfade struct{}

func (VideoCrossfade) Composite(front, rear *frameprim.VideoFrame, t float64) (*frameprim.VideoFrame, error) {
	if front == nil {
		return rear, nil
	}
	if rear == nil {
		return front, nil
	}
	out := front.Clone()
	n := len(out.Data)
	if len(rear.Data) < n {
		n = len(rear.Data)
	}
	for i := 0; i < n; i++ {
		fv := float64(front.Data[i])
		rv := float64(rear.Data[i])
		out.Data[i] = byte(rv + (fv-rv)*t)
	}
	return out, nil
}

// AudioCrossfade mixes two audio frames by linear gain, equal-power
// would be more correct for perceptual loudness but the engine keeps
// the simpler linear law used by the video path for consistency.
type AudioCrossfade struct{}

func (AudioCrossfade) Composite(front, rear *frameprim.AudioFrame, t float64) (*frameprim.AudioFrame, error) {
	if front == nil {
		return rear, nil
	}
	if rear == nil {
		return front, nil
	}
	out := front.Clone()
	n := len(out.Data) / 2
	if m := len(rear.Data) / 2; m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		fv := int16(binary.LittleEndian.Uint16(front.Data[i*2:]))
		rv := int16(binary.LittleEndian.Uint16(rear.Data[i*2:]))
		mixed := float64(rv) + (float64(fv)-float64(rv))*t
		binary.LittleEndian.PutUint16(out.Data[i*2:], uint16(int16(mixed)))
	}
	return out, nil
}
