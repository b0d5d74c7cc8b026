package decode

import (
	"testing"
	"time"

	"github.com/keagan/mec/internal/codec"
	"github.com/keagan/mec/internal/config"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	src := &codec.FakeSource{DurationMs: 500, FPS: 30, Width: 4, Height: 4, SampleRate: 48000}
	demux := codec.NewFakeDemuxer(src)
	vdec := &codec.FakeVideoDecoder{Width: 4, Height: 4}
	adec := &codec.FakeAudioDecoder{SampleRate: 48000, Channels: 2}
	sink := &codec.DiscardSink{}

	decodeCfg := config.DecodeConfig{PacketQueueDepth: 8, FrameQueueDepth: 8, Workers: 1}
	renderCfg := config.RenderConfig{FrameCacheSize: 64, FrameCacheLowWater: 48}

	p := New(demux, vdec, adec, codec.PassthroughResampler{}, sink, decodeCfg, renderCfg)
	if err := p.Open("fake-source"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestReadFrameAtServesDecodedFrame(t *testing.T) {
	p := newTestPipeline(t)
	f, err := p.ReadFrameAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if f.TimestampMs != 0 {
		t.Fatalf("expected timestamp 0, got %d", f.TimestampMs)
	}
}

func TestReadFrameAtCacheHit(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.ReadFrameAt(0); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	_, cached := p.cache.get(0)
	p.mu.Unlock()
	if !cached {
		t.Fatal("expected frame 0 to be cached after ReadFrameAt")
	}
}

func TestSeekRepositionsPipeline(t *testing.T) {
	p := newTestPipeline(t)
	if err := p.Seek(200); err != nil {
		t.Fatal(err)
	}
	f, err := p.ReadFrameAt(200)
	if err != nil {
		t.Fatal(err)
	}
	if f.TimestampMs != 200 {
		t.Fatalf("expected timestamp 200, got %d", f.TimestampMs)
	}
}

func TestPlayPauseTracksPosition(t *testing.T) {
	p := newTestPipeline(t)
	p.Play()
	time.Sleep(20 * time.Millisecond)
	p.Pause()
	pos := p.PositionMs()
	if pos <= 0 {
		t.Fatalf("expected position to have advanced, got %d", pos)
	}
}

func TestAsyncSeekCompletes(t *testing.T) {
	p := newTestPipeline(t)
	ch := p.AsyncSeek(100)
	select {
	case err := <-ch:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async seek did not complete")
	}
}

func TestAsyncSeekPopulatesCacheNearTarget(t *testing.T) {
	p := newTestPipeline(t)
	ch := p.AsyncSeek(100)
	select {
	case err := <-ch:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async seek did not complete")
	}

	p.mu.Lock()
	f, ok := p.cache.closest(100)
	p.mu.Unlock()
	if !ok {
		t.Fatal("expected the scrub window to have cached a frame near the target")
	}
	if d := f.TimestampMs - 100; d > 500 || d < -500 {
		t.Fatalf("expected cached frame close to target 100, got %d", f.TimestampMs)
	}
}

func TestAsyncSeekRebracketsWhenTargetLeavesWindow(t *testing.T) {
	p := newTestPipeline(t)
	if err := <-p.AsyncSeek(50); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	lo0, hi0 := p.scrub.lo, p.scrub.hi
	p.mu.Unlock()

	if err := <-p.AsyncSeek(50 + scrubWindowHalfMs*3); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	lo1, hi1 := p.scrub.lo, p.scrub.hi
	p.mu.Unlock()

	if lo1 == lo0 && hi1 == hi0 {
		t.Fatal("expected the demuxer window to rebracket once the target left it")
	}
}

func TestEndScrubResumesPlaybackWhenPreviouslyPlaying(t *testing.T) {
	p := newTestPipeline(t)
	p.Play()
	time.Sleep(10 * time.Millisecond)
	if err := <-p.AsyncSeek(200); err != nil {
		t.Fatal(err)
	}
	if err := p.EndScrub(); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	running := p.clk.running
	p.mu.Unlock()
	if !running {
		t.Fatal("expected playback to resume after EndScrub")
	}
}
