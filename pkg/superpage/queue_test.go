//go:build unit

package superpage

import "testing"

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue(3)
	for i := uint64(0); i < 3; i++ {
		if err := q.PushBack(Page{Offset: i}); err != nil {
			t.Fatalf("PushBack(%d): %v", i, err)
		}
	}
	if !q.IsFull() {
		t.Fatal("expected queue to be full")
	}
	if err := q.PushBack(Page{Offset: 99}); err != ErrQueueFull {
		t.Fatalf("PushBack on full queue: got %v, want ErrQueueFull", err)
	}

	for i := uint64(0); i < 3; i++ {
		p, err := q.PopFront()
		if err != nil {
			t.Fatalf("PopFront(%d): %v", i, err)
		}
		if p.Offset != i {
			t.Errorf("PopFront(%d) = offset %d, want %d", i, p.Offset, i)
		}
	}
	if !q.IsEmpty() {
		t.Fatal("expected queue to be empty")
	}
	if _, err := q.PopFront(); err != ErrQueueEmpty {
		t.Fatalf("PopFront on empty queue: got %v, want ErrQueueEmpty", err)
	}
}

func TestQueueFrontPeekDoesNotRemove(t *testing.T) {
	q := NewQueue(2)
	q.PushBack(Page{Offset: 7})

	p1, err := q.FrontPeek()
	if err != nil {
		t.Fatalf("FrontPeek: %v", err)
	}
	p2, err := q.FrontPeek()
	if err != nil {
		t.Fatalf("FrontPeek: %v", err)
	}
	if p1.Offset != p2.Offset {
		t.Fatalf("FrontPeek is not idempotent: %d != %d", p1.Offset, p2.Offset)
	}
	if q.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", q.Size())
	}
}

func TestQueueWrapsAroundRingBuffer(t *testing.T) {
	q := NewQueue(2)
	q.PushBack(Page{Offset: 1})
	q.PushBack(Page{Offset: 2})
	q.PopFront()
	q.PushBack(Page{Offset: 3})

	p, _ := q.PopFront()
	if p.Offset != 2 {
		t.Fatalf("expected offset 2, got %d", p.Offset)
	}
	p, _ = q.PopFront()
	if p.Offset != 3 {
		t.Fatalf("expected offset 3, got %d", p.Offset)
	}
}

func TestQueueDrainAll(t *testing.T) {
	q := NewQueue(4)
	q.PushBack(Page{Offset: 1})
	q.PushBack(Page{Offset: 2})
	q.DrainAll()

	if !q.IsEmpty() {
		t.Fatalf("expected empty queue after DrainAll, size=%d", q.Size())
	}
	if err := q.PushBack(Page{Offset: 9}); err != nil {
		t.Fatalf("PushBack after DrainAll: %v", err)
	}
}

func TestQueueZeroCapacity(t *testing.T) {
	q := NewQueue(0)
	if !q.IsFull() || !q.IsEmpty() {
		t.Fatalf("zero-capacity queue should be both full and empty")
	}
	if err := q.PushBack(Page{}); err != ErrQueueFull {
		t.Fatalf("PushBack on zero-capacity queue: got %v, want ErrQueueFull", err)
	}
}
