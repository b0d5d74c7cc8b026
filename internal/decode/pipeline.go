// Package decode implements the decode pipeline: demux -> per-stream
// decode -> resample -> render stages connected by bounded queues, with
// play/pause, full seek, and coalesced async seek for scrubbing.
package decode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/keagan/mec/internal/codec"
	"github.com/keagan/mec/internal/config"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/logging"
	"github.com/keagan/mec/internal/mecerr"
	"github.com/keagan/mec/internal/queue"
)

// Pipeline owns one open source's demux/decode/render stages. It is not
// safe for concurrent Open calls but its playback controls (Play,
// Pause, Seek, AsyncSeek, ReadFrameAt) are.
type Pipeline struct {
	mu sync.Mutex

	demux     codec.Demuxer
	vdec      codec.VideoDecoder
	adec      codec.AudioDecoder
	resampler codec.Resampler
	sink      codec.AudioSink

	decodeCfg config.DecodeConfig
	renderCfg config.RenderConfig

	pktQueue        *queue.Bounded[*frameprim.Packet]
	videoFrameQueue *queue.Bounded[*frameprim.VideoFrame]
	audioFrameQueue *queue.Bounded[*frameprim.AudioFrame]

	cache *frameCache
	clk   *clock

	running bool
	cancel  context.CancelFunc
	eg      *errgroup.Group

	scrubGroup singleflight.Group
	scrub      scrubWindow
	logger     zerolog.Logger
}

// scrubWindowHalfMs is half the width of the sliding packet window the
// scrub path narrows the demuxer to around the live target.
const scrubWindowHalfMs = 2000

// scrubWindow tracks the live state of an in-progress async/scrubbing
// seek: the current target, the demuxer window bracketing it, and
// whether playback should resume once scrubbing ends.
type scrubWindow struct {
	active     bool
	target     int64
	lo, hi     int64
	wasPlaying bool
}

// New constructs a Pipeline around the given collaborators. Any of
// resampler/sink may be nil for a video-only source.
func New(demux codec.Demuxer, vdec codec.VideoDecoder, adec codec.AudioDecoder, resampler codec.Resampler, sink codec.AudioSink, decodeCfg config.DecodeConfig, renderCfg config.RenderConfig) *Pipeline {
	return &Pipeline{
		demux:     demux,
		vdec:      vdec,
		adec:      adec,
		resampler: resampler,
		sink:      sink,
		decodeCfg: decodeCfg,
		renderCfg: renderCfg,
		cache:     newFrameCache(renderCfg.FrameCacheSize, renderCfg.FrameCacheLowWater),
		clk:       newClock(),
		logger:    logging.WithComponent("decode"),
	}
}

// Open opens the underlying source and starts the pipeline's stage
// goroutines in a paused state at position 0.
func (p *Pipeline) Open(sourceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.demux.Open(sourceID); err != nil {
		return mecerr.Wrap(mecerr.FileInvalid, "decode: open "+sourceID, err)
	}
	p.pktQueue = queue.New[*frameprim.Packet](p.decodeCfg.PacketQueueDepth)
	p.videoFrameQueue = queue.New[*frameprim.VideoFrame](p.decodeCfg.FrameQueueDepth)
	if p.adec != nil {
		p.audioFrameQueue = queue.New[*frameprim.AudioFrame](p.decodeCfg.FrameQueueDepth)
	}
	return p.startLocked()
}

func (p *Pipeline) startLocked() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	eg, ctx := errgroup.WithContext(ctx)
	p.eg = eg

	eg.Go(func() error { return p.demuxLoop(ctx) })
	eg.Go(func() error { return p.videoDecodeLoop(ctx) })
	if p.adec != nil {
		eg.Go(func() error { return p.audioDecodeLoop(ctx) })
	}
	eg.Go(func() error { return p.renderLoop(ctx) })

	p.running = true
	return nil
}

// stopLocked cancels and joins the current stage goroutines, ignoring
// context.Canceled, which is the expected shutdown error.
func (p *Pipeline) stopLocked() error {
	if !p.running {
		return nil
	}
	p.cancel()
	err := p.eg.Wait()
	p.running = false
	if err != nil && ctxErr(err) {
		return nil
	}
	return err
}

func ctxErr(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}

func (p *Pipeline) demuxLoop(ctx context.Context) error {
	for {
		pkt, err := p.demux.ReadPacket()
		if err != nil {
			return mecerr.Wrap(mecerr.DecodeFailed, "decode: read packet", err)
		}
		if pkt.EOF {
			p.pktQueue.Close()
			return nil
		}
		if !p.pktQueue.PushWait(pkt, ctx.Done()) {
			return ctx.Err()
		}
	}
}

func (p *Pipeline) videoDecodeLoop(ctx context.Context) error {
	for {
		pkt, ok := p.pktQueue.PopWait(ctx.Done())
		if !ok {
			if p.pktQueue.IsClosed() {
				p.videoFrameQueue.Close()
				return nil
			}
			return ctx.Err()
		}
		frame, err := p.vdec.Decode(pkt)
		if err != nil {
			return mecerr.Wrap(mecerr.DecodeFailed, "decode: video decode", err)
		}
		if frame == nil {
			continue
		}
		if !p.videoFrameQueue.PushWait(frame, ctx.Done()) {
			return ctx.Err()
		}
	}
}

func (p *Pipeline) audioDecodeLoop(ctx context.Context) error {
	for {
		pkt, ok := p.pktQueue.PopWait(ctx.Done())
		if !ok {
			if p.pktQueue.IsClosed() {
				p.audioFrameQueue.Close()
				return nil
			}
			return ctx.Err()
		}
		if pkt.Stream != 1 {
			continue
		}
		frame, err := p.adec.Decode(pkt)
		if err != nil {
			return mecerr.Wrap(mecerr.DecodeFailed, "decode: audio decode", err)
		}
		if frame == nil {
			continue
		}
		if p.resampler != nil {
			resampled, err := p.resampler.Resample(frame)
			if err != nil {
				return fmt.Errorf("decode: resample: %w", err)
			}
			frame = resampled
		}
		if !p.audioFrameQueue.PushWait(frame, ctx.Done()) {
			return ctx.Err()
		}
	}
}

func (p *Pipeline) renderLoop(ctx context.Context) error {
	for {
		frame, ok := p.videoFrameQueue.PopWait(ctx.Done())
		if !ok {
			return nil
		}
		// Seek, scrubStep and Close hold p.mu while they cancel and join
		// the stages, so wait for the lock without ignoring cancellation.
		for !p.mu.TryLock() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(queue.PollInterval):
			}
		}
		p.cache.put(frame)
		p.mu.Unlock()

		if p.audioFrameQueue != nil {
			if af, ok := p.audioFrameQueue.PopIfAvailable(); ok && p.sink != nil {
				if err := p.sink.Write(af); err != nil {
					return fmt.Errorf("decode: sink write: %w", err)
				}
			}
		}
	}
}

// Play starts (or resumes) the pipeline's clock at its current cursor.
func (p *Pipeline) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clk.start(p.clk.positionMs())
}

// Pause stops the clock without tearing down decode state.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clk.stop()
}

// PositionMs returns the pipeline's current estimated playback
// position.
func (p *Pipeline) PositionMs() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clk.positionMs()
}

// Seek performs a full, synchronous seek: it stops the stage
// goroutines, flushes every queue and the frame cache, repositions the
// demuxer, and restarts decoding from there.
func (p *Pipeline) Seek(posMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(posMs)
}

func (p *Pipeline) seekLocked(posMs int64) error {
	wasRunning := p.clk.running
	p.scrub = scrubWindow{}
	if err := p.stopLocked(); err != nil {
		return err
	}
	if err := p.demux.Seek(0, posMs); err != nil {
		return err
	}
	p.pktQueue.Flush()
	p.pktQueue.Reopen()
	p.videoFrameQueue.Flush()
	p.videoFrameQueue.Reopen()
	if p.audioFrameQueue != nil {
		p.audioFrameQueue.Flush()
		p.audioFrameQueue.Reopen()
	}
	p.cache.flush()
	if err := p.startLocked(); err != nil {
		return err
	}
	p.clk.startPos = posMs
	if wasRunning {
		p.clk.start(posMs)
	}
	return nil
}

// AsyncSeek moves the live scrub target without paying the full
// stop/flush/reseek/restart cost of Seek on every call. The first call
// in a scrub session pauses the normal decode stages and the clock;
// later calls just move the target, rebracketing the demuxer's sliding
// packet window only when the target has actually left it. Rapid
// repeated calls collapse into one in-flight step via singleflight, so
// a burst of scrub events only pays for one demuxer round trip.
func (p *Pipeline) AsyncSeek(posMs int64) <-chan error {
	ch := make(chan error, 1)
	go func() {
		_, err, _ := p.scrubGroup.Do("scrub", func() (any, error) {
			return nil, p.scrubStep(posMs)
		})
		ch <- err
	}()
	return ch
}

// scrubStep advances one step of the async-seek scrubbing algorithm:
// enter scrub mode if not already in it, rebracket the demuxer's
// [lo, hi) window around posMs if it left the current one, then drain
// packets up to hi, thumbnailing and caching each decoded frame near
// the live target.
func (p *Pipeline) scrubStep(posMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.scrub.active {
		p.scrub.wasPlaying = p.clk.running
		if err := p.stopLocked(); err != nil {
			return err
		}
		p.clk.stop()
		p.scrub.active = true
		p.scrub.lo, p.scrub.hi = -1, -1
	}
	p.scrub.target = posMs

	if posMs < p.scrub.lo || posMs >= p.scrub.hi {
		lo := posMs - scrubWindowHalfMs
		if lo < 0 {
			lo = 0
		}
		hi := posMs + scrubWindowHalfMs
		// A real codec would bracket the target's keyframe range with a
		// backward seek to the keyframe at or before lo and a forward
		// seek to confirm hi is reachable; this demuxer resolves an
		// arbitrary millisecond position in a single call, so one seek
		// covers both directions.
		if err := p.demux.Seek(0, lo); err != nil {
			return err
		}
		p.scrub.lo, p.scrub.hi = lo, hi
	}

	for {
		pkt, err := p.demux.ReadPacket()
		if err != nil {
			return mecerr.Wrap(mecerr.DecodeFailed, "decode: scrub read packet", err)
		}
		if pkt.EOF || pkt.Pts >= p.scrub.hi {
			break
		}
		frame, err := p.vdec.Decode(pkt)
		if err != nil {
			return mecerr.Wrap(mecerr.DecodeFailed, "decode: scrub video decode", err)
		}
		if frame == nil {
			continue
		}
		p.cache.putNearTarget(frame, p.scrub.target, p.renderCfg.ThumbnailMaxWidth, p.renderCfg.ThumbnailMaxHeight)
	}
	return nil
}

// EndScrub is quitSeekAsync: it performs one final synchronous seek to
// the last scrub target and, if playback was running before scrubbing
// began, resumes it.
func (p *Pipeline) EndScrub() error {
	p.mu.Lock()
	if !p.scrub.active {
		p.mu.Unlock()
		return nil
	}
	target := p.scrub.target
	wasPlaying := p.scrub.wasPlaying
	p.mu.Unlock()

	if err := p.Seek(target); err != nil {
		return err
	}
	if wasPlaying {
		p.Play()
	}
	return nil
}

// ReadFrameAt returns the decoded video frame at posMs, serving from
// the frame cache when possible and otherwise performing a synchronous
// seek-and-wait.
func (p *Pipeline) ReadFrameAt(posMs int64) (*frameprim.VideoFrame, error) {
	p.mu.Lock()
	if f, ok := p.cache.get(posMs); ok {
		p.mu.Unlock()
		return f, nil
	}
	p.mu.Unlock()

	if err := p.Seek(posMs); err != nil {
		return nil, err
	}
	// renderLoop is the sole consumer of videoFrameQueue and populates the
	// cache as it drains; poll the cache rather than race it for frames.
	for {
		p.mu.Lock()
		f, ok := p.cache.get(posMs)
		closed := p.videoFrameQueue.IsClosed()
		p.mu.Unlock()
		if ok {
			return f, nil
		}
		if closed {
			return nil, mecerr.Newf(mecerr.NotFound, "decode: no frame at %d", posMs)
		}
		time.Sleep(queue.PollInterval)
	}
}

// Close stops the pipeline and releases its demux/decode collaborators.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		p.logger.Warn().Err(err).Msg("stage error during close")
	}
	p.vdec.Close()
	if p.adec != nil {
		p.adec.Close()
	}
	if p.sink != nil {
		p.sink.Close()
	}
	return p.demux.Close()
}
