// Package codec defines the opaque collaborator contracts the decode
// pipeline drives: demuxing, per-stream decoding, audio resampling, and
// the audio output sink. The engine never depends on a concrete media
// library directly; it depends on these interfaces, and a concrete
// adapter is wired in by whatever embeds the engine.
package codec

import (
	"github.com/keagan/mec/internal/frameprim"
)

// StreamInfo describes one stream a Demuxer exposes.
type StreamInfo struct {
	Index     int
	Kind      frameprim.StreamKind
	TimeBase  frameprim.Rational
	DurationMs int64
}

// Demuxer reads compressed packets from a source and can seek within it.
// Implementations are not required to be safe for concurrent use; the
// decode pipeline owns a Demuxer exclusively per open source.
type Demuxer interface {
	Open(sourceID string) error
	Streams() []StreamInfo
	ReadPacket() (*frameprim.Packet, error)
	// Seek repositions the demuxer so the next ReadPacket returns data at
	// or before targetMs on streamIndex. A negative return from the
	// underlying transport surfaces as mecerr.SeekFailed.
	Seek(streamIndex int, targetMs int64) error
	Close() error
}

// VideoDecoder turns compressed video packets into frames.
type VideoDecoder interface {
	Decode(pkt *frameprim.Packet) (*frameprim.VideoFrame, error)
	Flush() ([]*frameprim.VideoFrame, error)
	Close() error
}

// AudioDecoder turns compressed audio packets into frames.
type AudioDecoder interface {
	Decode(pkt *frameprim.Packet) (*frameprim.AudioFrame, error)
	Flush() ([]*frameprim.AudioFrame, error)
	Close() error
}

// Resampler converts a decoded audio frame to the render pipeline's
// fixed output format (frameprim.RenderSampleFormat).
type Resampler interface {
	Resample(f *frameprim.AudioFrame) (*frameprim.AudioFrame, error)
}

// AudioSink is the playback endpoint the render stage pushes resampled
// audio frames to. The decode pipeline does not derive its clock from
// the sink.
type AudioSink interface {
	Write(f *frameprim.AudioFrame) error
	// QueuedMs reports how much audio is buffered but not yet played.
	// The decode pipeline does not call it.
	QueuedMs() int64
	Close() error
}

// HwFormatChooser picks a hardware decode pixel format from the
// candidates a codec library offers, given the caller's desired format.
// It returns ok=false when none of the candidates are acceptable, in
// which case the caller falls back to software decode.
type HwFormatChooser func(candidates []frameprim.PixFmt, desired frameprim.PixFmt) (chosen frameprim.PixFmt, ok bool)

// DefaultHwFormatChooser picks desired if it is among candidates, else
// the first candidate, else reports no acceptable format.
func DefaultHwFormatChooser(candidates []frameprim.PixFmt, desired frameprim.PixFmt) (frameprim.PixFmt, bool) {
	for _, c := range candidates {
		if c == desired {
			return c, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return "", false
}
