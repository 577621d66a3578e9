package quote

import "strings"

// tickerState is the generator's mutable per-ticker price/volume state.
type tickerState struct {
	price      float64
	baseVolume int64
}

// PriceBook holds the set of tradable tickers and their current price.
// Keys are fixed at construction; only the price mutates, and only
// inside the generator's tick.
type PriceBook struct {
	tickers map[string]*tickerState
}

// NewPriceBook builds a PriceBook from an inventory of (ticker, initial
// price, base volume) triples. Ticker symbols are upper-cased.
func NewPriceBook(entries []TickerSeed) *PriceBook {
	tickers := make(map[string]*tickerState, len(entries))
	for _, e := range entries {
		tickers[strings.ToUpper(e.Ticker)] = &tickerState{
			price:      e.InitialPrice,
			baseVolume: e.BaseVolume,
		}
	}
	return &PriceBook{tickers: tickers}
}

// TickerSeed is the startup inventory record for one ticker.
type TickerSeed struct {
	Ticker       string
	InitialPrice float64
	BaseVolume   int64
}

// Has reports whether ticker is a known symbol.
func (b *PriceBook) Has(ticker string) bool {
	_, ok := b.tickers[strings.ToUpper(ticker)]
	return ok
}

// Tickers returns the known ticker symbols in unspecified order.
func (b *PriceBook) Tickers() []string {
	out := make([]string, 0, len(b.tickers))
	for t := range b.tickers {
		out = append(out, t)
	}
	return out
}
