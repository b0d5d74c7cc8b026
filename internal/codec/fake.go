package codec

import (
	"fmt"

	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
)

// FakeSource is an in-memory stand-in for a real media file: a fixed
// duration, frame rate, and sample rate, with deterministic pixel/sample
// values derived from timestamp. It lets the decode pipeline and its
// tests run without a real demux/decode backend.
type FakeSource struct {
	DurationMs int64
	FPS        int
	Width, Height int
	SampleRate    int
}

// FakeDemuxer implements Demuxer over a FakeSource, generating one video
// packet per video frame interval. Streams lists an audio stream, but
// ReadPacket never produces an audio packet.
type FakeDemuxer struct {
	src      *FakeSource
	posMs    int64
	closed   bool
}

func NewFakeDemuxer(src *FakeSource) *FakeDemuxer {
	return &FakeDemuxer{src: src}
}

func (d *FakeDemuxer) Open(sourceID string) error {
	if d.src == nil {
		return mecerr.Newf(mecerr.NotFound, "codec: unknown fake source %q", sourceID)
	}
	return nil
}

func (d *FakeDemuxer) Streams() []StreamInfo {
	return []StreamInfo{
		{Index: 0, Kind: frameprim.StreamVideo, TimeBase: frameprim.Rational{Num: 1, Den: 1000}, DurationMs: d.src.DurationMs},
		{Index: 1, Kind: frameprim.StreamAudio, TimeBase: frameprim.Rational{Num: 1, Den: 1000}, DurationMs: d.src.DurationMs},
	}
}

func (d *FakeDemuxer) frameIntervalMs() int64 {
	if d.src.FPS <= 0 {
		return 33
	}
	return int64(1000 / d.src.FPS)
}

func (d *FakeDemuxer) ReadPacket() (*frameprim.Packet, error) {
	if d.closed {
		return nil, mecerr.New(mecerr.DecodeFailed, "codec: read from closed demuxer")
	}
	if d.posMs >= d.src.DurationMs {
		return &frameprim.Packet{EOF: true}, nil
	}
	pkt := &frameprim.Packet{Stream: 0, Pts: d.posMs, Data: []byte{byte(d.posMs % 256)}}
	d.posMs += d.frameIntervalMs()
	return pkt, nil
}

// Seek clamps targetMs into [0, DurationMs]; a negative targetMs
// surfaces as mecerr.SeekFailed, mirroring a real demuxer's negative
// return code.
func (d *FakeDemuxer) Seek(streamIndex int, targetMs int64) error {
	if targetMs < 0 {
		return mecerr.Newf(mecerr.SeekFailed, "codec: seek to negative position %d", targetMs)
	}
	if targetMs > d.src.DurationMs {
		targetMs = d.src.DurationMs
	}
	d.posMs = targetMs
	return nil
}

func (d *FakeDemuxer) Close() error {
	d.closed = true
	return nil
}

// FakeVideoDecoder turns a FakeDemuxer's packets into flat gray frames.
// HwCandidates and ChooseHwFormat mirror a real hardware decode path: on
// the first packet the decoder negotiates a pixel format once via
// ChooseHwFormat and reuses it for the life of the stream, falling back
// to software "gray8" when no chooser is set or none of HwCandidates is
// acceptable.
type FakeVideoDecoder struct {
	Width, Height  int
	HwCandidates   []frameprim.PixFmt
	ChooseHwFormat HwFormatChooser

	negotiated    bool
	negotiatedFmt frameprim.PixFmt
}

func (dec *FakeVideoDecoder) Decode(pkt *frameprim.Packet) (*frameprim.VideoFrame, error) {
	if pkt.EOF {
		return nil, nil
	}
	if !dec.negotiated {
		dec.negotiatedFmt = "gray8"
		if dec.ChooseHwFormat != nil {
			if chosen, ok := dec.ChooseHwFormat(dec.HwCandidates, "gray8"); ok {
				dec.negotiatedFmt = chosen
			}
		}
		dec.negotiated = true
	}
	v := byte(0)
	if len(pkt.Data) > 0 {
		v = pkt.Data[0]
	}
	n := dec.Width * dec.Height
	data := make([]byte, n)
	for i := range data {
		data[i] = v
	}
	return &frameprim.VideoFrame{
		PixFmt:      dec.negotiatedFmt,
		Width:       dec.Width,
		Height:      dec.Height,
		TimestampMs: pkt.Pts,
		Data:        data,
	}, nil
}

func (dec *FakeVideoDecoder) Flush() ([]*frameprim.VideoFrame, error) { return nil, nil }
func (dec *FakeVideoDecoder) Close() error                            { return nil }

// FakeAudioDecoder turns packets into silent-but-timestamped s16 audio
// frames of SampleRate/30 samples per channel (one 30fps frame interval)
// per call.
type FakeAudioDecoder struct {
	SampleRate int
	Channels   int
}

func (dec *FakeAudioDecoder) Decode(pkt *frameprim.Packet) (*frameprim.AudioFrame, error) {
	if pkt.EOF {
		return nil, nil
	}
	samples := dec.SampleRate / 30
	if samples <= 0 {
		samples = 1
	}
	data := make([]byte, samples*dec.Channels*2)
	return &frameprim.AudioFrame{
		SampleFmt:     frameprim.RenderSampleFormat,
		ChannelLayout: fmt.Sprintf("%dch", dec.Channels),
		SampleRate:    dec.SampleRate,
		TimestampMs:   pkt.Pts,
		DurationMs:    int64(samples) * 1000 / int64(dec.SampleRate),
		Data:          data,
	}, nil
}

func (dec *FakeAudioDecoder) Flush() ([]*frameprim.AudioFrame, error) { return nil, nil }
func (dec *FakeAudioDecoder) Close() error                            { return nil }

// PassthroughResampler returns frames unchanged; used where a FakeSource
// is already produced at the render pipeline's target format.
type PassthroughResampler struct{}

func (PassthroughResampler) Resample(f *frameprim.AudioFrame) (*frameprim.AudioFrame, error) {
	return f, nil
}

// DiscardSink accepts audio frames and tracks how many ms are queued
// without actually playing anything, for tests and headless runs.
type DiscardSink struct {
	queuedMs int64
}

func (s *DiscardSink) Write(f *frameprim.AudioFrame) error {
	s.queuedMs += f.DurationMs
	return nil
}

func (s *DiscardSink) QueuedMs() int64 { return s.queuedMs }
func (s *DiscardSink) Close() error    { return nil }
