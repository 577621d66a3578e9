package quote

import "testing"

type fakeBroadcaster struct {
	calls []Quote
}

func (f *fakeBroadcaster) Broadcast(ticker string, q Quote) (sent, dropped int) {
	f.calls = append(f.calls, q)
	return 1, 0
}

func TestNextQuoteRespectsFloors(t *testing.T) {
	book := NewPriceBook([]TickerSeed{{Ticker: "AAPL", InitialPrice: 1.0, BaseVolume: 100}})
	g := NewGenerator(book, &fakeBroadcaster{}, nil, 0, 1.0)

	for i := 0; i < 10000; i++ {
		q := g.nextQuote("AAPL", book.tickers["AAPL"])
		if q.Price < 1.0 {
			t.Fatalf("price fell below floor: %v", q.Price)
		}
		if q.Volume < 100 {
			t.Fatalf("volume fell below floor: %v", q.Volume)
		}
	}
}

func TestTickBroadcastsEveryTicker(t *testing.T) {
	book := NewPriceBook([]TickerSeed{
		{Ticker: "AAPL", InitialPrice: 100, BaseVolume: 1000},
		{Ticker: "TSLA", InitialPrice: 200, BaseVolume: 2000},
	})
	b := &fakeBroadcaster{}
	g := NewGenerator(book, b, nil, 0, 0.01)

	g.tick()

	if len(b.calls) != 2 {
		t.Fatalf("expected one broadcast per ticker, got %d", len(b.calls))
	}
}
