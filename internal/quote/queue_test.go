package quote

import "testing"

func TestQueuePushPop(t *testing.T) {
	q := NewQueue()

	ok, dropped := q.Push(newQuote("AAPL", 100, 500))
	if !ok || dropped {
		t.Fatalf("expected ok=true dropped=false, got ok=%v dropped=%v", ok, dropped)
	}

	v, ok := q.Pop()
	if !ok {
		t.Fatal("expected Pop to succeed")
	}
	if v.Ticker != "AAPL" {
		t.Fatalf("expected ticker AAPL, got %s", v.Ticker)
	}
}

func TestQueueDropOldestWhenFull(t *testing.T) {
	q := NewQueue()

	for i := 0; i < defaultQueueCapacity; i++ {
		if ok, _ := q.Push(newQuote("AAPL", float64(i), 100)); !ok {
			t.Fatalf("push %d: expected ok=true", i)
		}
	}

	ok, dropped := q.Push(newQuote("AAPL", 999, 100))
	if !ok || !dropped {
		t.Fatalf("expected ok=true dropped=true on full queue, got ok=%v dropped=%v", ok, dropped)
	}

	v, ok := q.Pop()
	if !ok {
		t.Fatal("expected Pop to succeed")
	}
	if v.Price != 1 {
		t.Fatalf("expected oldest-dropped queue to start at price 1, got %v", v.Price)
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue()
	q.Close()

	if _, ok := q.Pop(); ok {
		t.Fatal("expected Pop on closed empty queue to return ok=false")
	}
}

func TestQueuePushAfterCloseFails(t *testing.T) {
	q := NewQueue()
	q.Close()

	if ok, _ := q.Push(newQuote("AAPL", 1, 100)); ok {
		t.Fatal("expected Push on closed queue to return ok=false")
	}
}

func TestQueueDrainsPendingBeforeClosedSignal(t *testing.T) {
	q := NewQueue()
	q.Push(newQuote("AAPL", 1, 100))
	q.Close()

	if _, ok := q.Pop(); !ok {
		t.Fatal("expected Pop to drain the pending value before reporting closed")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected second Pop on drained closed queue to return ok=false")
	}
}
