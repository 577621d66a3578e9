// Package quote holds the core price model and the background generator
// that produces a continuous stream of per-ticker quotes.
package quote

import "time"

// Quote is an immutable, wire-serializable observation of a ticker's
// price and volume at a point in time.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume"`
	Timestamp uint64  `json:"timestamp"`
}

func newQuote(ticker string, price float64, volume int64) Quote {
	return Quote{
		Ticker:    ticker,
		Price:     price,
		Volume:    volume,
		Timestamp: uint64(time.Now().UnixMilli()),
	}
}
