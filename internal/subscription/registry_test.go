package subscription

import (
	"testing"

	"quoteserver/internal/quote"
)

func newTestBook() *quote.PriceBook {
	return quote.NewPriceBook([]quote.TickerSeed{
		{Ticker: "AAPL", InitialPrice: 100, BaseVolume: 1000},
		{Ticker: "TSLA", InitialPrice: 200, BaseVolume: 2000},
	})
}

func TestSubscribeUnknownTickerLeavesStateUnchanged(t *testing.T) {
	r := NewRegistry(newTestBook())

	_, err := r.Subscribe([]string{"AAPL", "NOPE"})
	if err == nil {
		t.Fatal("expected error for unknown ticker")
	}
	if _, ok := err.(*ErrInvalidTicker); !ok {
		t.Fatalf("expected *ErrInvalidTicker, got %T", err)
	}

	if n := r.SubscriberCount("AAPL"); n != 0 {
		t.Fatalf("expected no partial subscription, got %d subscribers on AAPL", n)
	}
}

func TestSubscribeThenBroadcastDelivers(t *testing.T) {
	r := NewRegistry(newTestBook())

	queues, err := r.Subscribe([]string{"AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queues) != 1 {
		t.Fatalf("expected 1 queue, got %d", len(queues))
	}

	sent, dropped := r.Broadcast("AAPL", quote.Quote{Ticker: "AAPL", Price: 101, Volume: 500})
	if sent != 1 || dropped != 0 {
		t.Fatalf("expected sent=1 dropped=0, got sent=%d dropped=%d", sent, dropped)
	}

	v, ok := queues[0].Pop()
	if !ok || v.Ticker != "AAPL" {
		t.Fatalf("expected to receive AAPL quote, got ok=%v v=%+v", ok, v)
	}
}

func TestBroadcastPrunesClosedConsumer(t *testing.T) {
	r := NewRegistry(newTestBook())

	queues, err := r.Subscribe([]string{"AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queues[0].Close()

	sent, _ := r.Broadcast("AAPL", quote.Quote{Ticker: "AAPL", Price: 101, Volume: 500})
	if sent != 0 {
		t.Fatalf("expected sent=0 for closed consumer, got %d", sent)
	}
	if n := r.SubscriberCount("AAPL"); n != 0 {
		t.Fatalf("expected broadcast to prune the closed subscriber, got %d remaining", n)
	}
}

func TestUnsubscribeRemovesQueue(t *testing.T) {
	r := NewRegistry(newTestBook())

	queues, err := r.Subscribe([]string{"TSLA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Unsubscribe([]string{"TSLA"}, queues)
	if n := r.SubscriberCount("TSLA"); n != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", n)
	}
}
