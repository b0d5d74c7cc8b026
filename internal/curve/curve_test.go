package curve

import "testing"

func TestValueInterpolatesLinearly(t *testing.T) {
	c := &Curve{
		Name: "gain",
		Keypoints: []Keypoint{
			{X: 0, Value: 1.0},
			{X: 100, Value: 2.0},
		},
	}

	got := c.Value(50)
	if got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
}

func TestValueClampsOutsideRange(t *testing.T) {
	c := &Curve{
		Name: "gain",
		Keypoints: []Keypoint{
			{X: 0, Value: 1.0},
			{X: 100, Value: 2.0},
		},
	}

	if got := c.Value(-50); got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
	if got := c.Value(500); got != 2.0 {
		t.Fatalf("expected clamp to 2.0, got %v", got)
	}
}

func TestSetValueUnknownCurve(t *testing.T) {
	s := NewSet()
	if _, err := s.Value("missing", 0); err == nil {
		t.Fatal("expected error for unknown curve")
	}
}

func TestSetValueKnownCurve(t *testing.T) {
	s := NewSet()
	s.Add(&Curve{Name: "gain", Keypoints: []Keypoint{{X: 0, Value: 1.0}, {X: 100, Value: 2.0}}})

	v, err := s.Value("gain", 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2.0 {
		t.Fatalf("expected clamp to 2.0, got %v", v)
	}
}
