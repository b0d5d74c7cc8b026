package queue

import "testing"

func TestPushPopBasic(t *testing.T) {
	q := New[int](2)
	if !q.PushIfRoom(1) {
		t.Fatal("expected room")
	}
	if !q.PushIfRoom(2) {
		t.Fatal("expected room")
	}
	if q.PushIfRoom(3) {
		t.Fatal("expected queue full")
	}

	v, ok := q.PopIfAvailable()
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}
	if !q.PushIfRoom(3) {
		t.Fatal("expected room after pop")
	}
}

func TestCloseDrain(t *testing.T) {
	q := New[string](4)
	q.PushIfRoom("a")
	q.Close()

	if q.IsClosed() {
		t.Fatal("closed queue with pending items should not report IsClosed yet")
	}
	if q.PushIfRoom("b") {
		t.Fatal("closed queue should reject new pushes")
	}

	if _, ok := q.PopIfAvailable(); !ok {
		t.Fatal("expected to drain the one pending item")
	}
	if !q.IsClosed() {
		t.Fatal("expected IsClosed once drained")
	}
}

func TestFlushAndReopen(t *testing.T) {
	q := New[int](4)
	q.PushIfRoom(1)
	q.PushIfRoom(2)
	q.Flush()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after flush, got %d", q.Len())
	}

	q.Close()
	q.Reopen()
	if !q.PushIfRoom(9) {
		t.Fatal("expected reopened queue to accept pushes")
	}
}
