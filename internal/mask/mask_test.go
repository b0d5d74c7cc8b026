package mask

import (
	"image"
	"testing"
)

func TestCombineUnion(t *testing.T) {
	a, err := FromJSON(Descriptor{Kind: "rect", Rect: image.Rect(0, 0, 50, 50)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromJSON(Descriptor{Kind: "rect", Rect: image.Rect(40, 40, 80, 80)})
	if err != nil {
		t.Fatal(err)
	}

	amask, err := a.GetMask(false, false, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	bmask, err := b.GetMask(false, false, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	// pad both masks to the same 80x80 canvas before combining, since
	// GetMask sizes its output to the descriptor's own bounding box.
	canvasA := NewAlpha(80, 80)
	for y := 0; y < amask.Height; y++ {
		for x := 0; x < amask.Width; x++ {
			canvasA.set(x, y, amask.at(x, y))
		}
	}
	canvasB := NewAlpha(80, 80)
	for y := 0; y < bmask.Height; y++ {
		for x := 0; x < bmask.Width; x++ {
			canvasB.set(x, y, bmask.at(x, y))
		}
	}

	combined, err := Combine([]*Alpha{canvasA, canvasB})
	if err != nil {
		t.Fatal(err)
	}

	if v := combined.ValueAt(45, 45); v != 1.0 {
		t.Fatalf("expected 1.0 at (45,45), got %v", v)
	}
	if v := combined.ValueAt(60, 60); v != 1.0 {
		t.Fatalf("expected 1.0 at (60,60), got %v", v)
	}
	if v := combined.ValueAt(79, 0); v != 0.0 {
		t.Fatalf("expected 0.0 at (79,0), got %v", v)
	}
}
