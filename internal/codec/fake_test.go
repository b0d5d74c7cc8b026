package codec

import (
	"testing"

	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
)

func TestFakeDemuxerReadsUntilEOF(t *testing.T) {
	d := NewFakeDemuxer(&FakeSource{DurationMs: 100, FPS: 30, Width: 4, Height: 4, SampleRate: 48000})
	if err := d.Open("src"); err != nil {
		t.Fatal(err)
	}
	var count int
	for {
		pkt, err := d.ReadPacket()
		if err != nil {
			t.Fatal(err)
		}
		if pkt.EOF {
			break
		}
		count++
		if count > 100 {
			t.Fatal("ReadPacket never reached EOF")
		}
	}
	if count == 0 {
		t.Fatal("expected at least one packet before EOF")
	}
}

func TestFakeDemuxerSeekNegativeFails(t *testing.T) {
	d := NewFakeDemuxer(&FakeSource{DurationMs: 100, FPS: 30, Width: 4, Height: 4, SampleRate: 48000})
	err := d.Seek(0, -1)
	if !mecerr.Is(err, mecerr.SeekFailed) {
		t.Fatalf("expected SEEK_FAILED, got %v", err)
	}
}

func TestFakeVideoDecoderProducesFlatFrame(t *testing.T) {
	d := NewFakeDemuxer(&FakeSource{DurationMs: 100, FPS: 30, Width: 2, Height: 2, SampleRate: 48000})
	pkt, err := d.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	dec := &FakeVideoDecoder{Width: 2, Height: 2}
	frame, err := dec.Decode(pkt)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame.Data) != 4 {
		t.Fatalf("expected 4 pixels, got %d", len(frame.Data))
	}
}

func TestFakeVideoDecoderNegotiatesHwFormatOnce(t *testing.T) {
	d := NewFakeDemuxer(&FakeSource{DurationMs: 100, FPS: 30, Width: 2, Height: 2, SampleRate: 48000})
	dec := &FakeVideoDecoder{
		Width: 2, Height: 2,
		HwCandidates:   []frameprim.PixFmt{"vaapi"},
		ChooseHwFormat: DefaultHwFormatChooser,
	}
	for i := 0; i < 3; i++ {
		pkt, err := d.ReadPacket()
		if err != nil {
			t.Fatal(err)
		}
		frame, err := dec.Decode(pkt)
		if err != nil {
			t.Fatal(err)
		}
		if frame.PixFmt != "vaapi" {
			t.Fatalf("expected negotiated format vaapi, got %q", frame.PixFmt)
		}
	}
}

func TestFakeVideoDecoderFallsBackWithoutChooser(t *testing.T) {
	d := NewFakeDemuxer(&FakeSource{DurationMs: 100, FPS: 30, Width: 2, Height: 2, SampleRate: 48000})
	dec := &FakeVideoDecoder{Width: 2, Height: 2}
	pkt, err := d.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	frame, err := dec.Decode(pkt)
	if err != nil {
		t.Fatal(err)
	}
	if frame.PixFmt != "gray8" {
		t.Fatalf("expected software fallback gray8, got %q", frame.PixFmt)
	}
}

func TestDefaultHwFormatChooserPrefersDesired(t *testing.T) {
	chosen, ok := DefaultHwFormatChooser([]frameprim.PixFmt{"vaapi", "gray8"}, "gray8")
	if !ok || chosen != "gray8" {
		t.Fatalf("expected gray8 to be preferred when present, got %q ok=%v", chosen, ok)
	}
	chosen, ok = DefaultHwFormatChooser([]frameprim.PixFmt{"vaapi"}, "gray8")
	if !ok || chosen != "vaapi" {
		t.Fatalf("expected fallback to first candidate, got %q ok=%v", chosen, ok)
	}
	if _, ok := DefaultHwFormatChooser(nil, "gray8"); ok {
		t.Fatal("expected no acceptable format with empty candidates")
	}
}
