package eventstack

import (
	"testing"

	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/curve"
	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
)

func gainEvent(t *testing.T, id string, start, end int64, z int) *event.Event {
	t.Helper()
	cs := curve.NewSet()
	cs.Add(&curve.Curve{Name: "gain", Keypoints: []curve.Keypoint{{X: 0, Value: 1.0}, {X: 100, Value: 2.0}}})
	ev, err := event.New(id, start, end, z, blueprint.NewGainGraph(id), cs)
	if err != nil {
		t.Fatalf("event.New: %v", err)
	}
	return ev
}

func flatFrame(v byte, n int) *frameprim.VideoFrame {
	data := make([]byte, n)
	for i := range data {
		data[i] = v
	}
	return &frameprim.VideoFrame{Width: n, Height: 1, Data: data}
}

func TestEmptyStackPassThrough(t *testing.T) {
	s := New[*frameprim.VideoFrame](NewVideoKind(nil))
	in := flatFrame(100, 4)
	out, err := s.Apply(in, 42)
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Data) != string(in.Data) {
		t.Fatalf("expected pass-through, got %v", out.Data)
	}
}

func TestSingleEventGainAtMidpoint(t *testing.T) {
	s := New[*frameprim.VideoFrame](NewVideoKind(nil))
	ev := gainEvent(t, "e1", 100, 200, 0)
	if err := s.AddEvent(ev); err != nil {
		t.Fatal(err)
	}

	in := flatFrame(100, 4)

	out, err := s.Apply(in, 150)
	if err != nil {
		t.Fatal(err)
	}
	// gain at rel=50 is 1.5 -> 100*1.5 = 150
	if out.Data[0] != 150 {
		t.Fatalf("expected 150, got %d", out.Data[0])
	}

	out99, err := s.Apply(in, 99)
	if err != nil {
		t.Fatal(err)
	}
	if out99.Data[0] != 100 {
		t.Fatalf("expected pass-through before start, got %d", out99.Data[0])
	}

	out200, err := s.Apply(in, 200)
	if err != nil {
		t.Fatal(err)
	}
	if out200.Data[0] != 100 {
		t.Fatalf("expected pass-through at half-open end, got %d", out200.Data[0])
	}
}

func TestOverlapAtSameZRejected(t *testing.T) {
	s := New[*frameprim.VideoFrame](NewVideoKind(nil))
	if err := s.AddEvent(gainEvent(t, "a", 0, 100, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEvent(gainEvent(t, "b", 100, 200, 0)); err != nil {
		t.Fatal(err)
	}

	err := s.AddEvent(gainEvent(t, "c", 50, 150, 0))
	if err == nil {
		t.Fatal("expected overlap rejection")
	}
	if !mecerr.Is(err, mecerr.InvalidArg) {
		t.Fatalf("expected INVALID_ARG, got %v", err)
	}

	if err := s.AddEvent(gainEvent(t, "c2", 50, 150, 1)); err != nil {
		t.Fatalf("expected success at different z, got %v", err)
	}
}
