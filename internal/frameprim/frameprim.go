// Package frameprim defines the compressed-packet and decoded-frame value
// types shared by every stage of the decode pipeline.
package frameprim

import "fmt"

// Rational is a source-media time base, converted to/from timeline
// milliseconds on entry/exit.
type Rational struct {
	Num int64
	Den int64
}

// ToMillis converts a tick count expressed in this time base to integer
// timeline milliseconds.
func (r Rational) ToMillis(ticks int64) int64 {
	if r.Den == 0 {
		return 0
	}
	return ticks * r.Num * 1000 / r.Den
}

// FromMillis converts a millisecond timeline position to a tick count in
// this time base.
func (r Rational) FromMillis(ms int64) int64 {
	if r.Num == 0 {
		return 0
	}
	return ms * r.Den / (r.Num * 1000)
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// StreamKind distinguishes the two media kinds the pipeline carries.
type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
)

// PixFmt names a decoded video frame's pixel layout. The concrete set is
// owned by the codec collaborator; the engine only ever compares values
// for equality when negotiating a hardware format.
type PixFmt string

// SampleFmt names a decoded audio frame's sample layout.
type SampleFmt string

// RenderSampleFormat is the fixed sample format the render stage
// resamples every audio frame to before handing it to the sink.
const RenderSampleFormat SampleFmt = "s16"

// Packet is an opaque compressed chunk read from the demuxer, tagged with
// the stream it belongs to.
type Packet struct {
	Stream  StreamKind
	Pts     int64
	Data    []byte
	EOF     bool // sentinel marking end of the source
}

// VideoFrame is a decoded, uncompressed video frame.
type VideoFrame struct {
	PixFmt      PixFmt
	Width       int
	Height      int
	ColorSpace  string
	TimestampMs int64
	Data        []byte // packed pixel data, opaque to the engine
}

// Clone returns a deep copy suitable for handing to a "latest frame"
// slot with its own lifetime, independent of the buffer the decoder
// reused it from.
func (f *VideoFrame) Clone() *VideoFrame {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Data = append([]byte(nil), f.Data...)
	return &cp
}

// AudioFrame is a decoded, uncompressed audio frame.
type AudioFrame struct {
	SampleFmt     SampleFmt
	ChannelLayout string
	SampleRate    int
	TimestampMs   int64
	DurationMs    int64
	Data          []byte
}

func (f *AudioFrame) Clone() *AudioFrame {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Data = append([]byte(nil), f.Data...)
	return &cp
}

// EmptyVideoFrame yields a frame with only TimestampMs set, for callers
// that need a placeholder when no clip covers a read position.
func EmptyVideoFrame(ts int64) *VideoFrame {
	return &VideoFrame{TimestampMs: ts}
}
