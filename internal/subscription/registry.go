// Package subscription implements the per-ticker subscriber fan-out
// fabric: a mapping from ticker symbol to the ordered list of
// subscription queues currently interested in it.
package subscription

import (
	"fmt"
	"sync"

	"quoteserver/internal/quote"
)

// ErrInvalidTicker is returned by Subscribe when a requested ticker is
// not present in the server's price book.
type ErrInvalidTicker struct {
	Ticker string
}

func (e *ErrInvalidTicker) Error() string {
	return fmt.Sprintf("Invalid ticker: %s", e.Ticker)
}

type bucket struct {
	mu   sync.Mutex
	subs []*quote.Queue
}

// Registry maps ticker -> ordered list of subscription queues. Each
// ticker has its own lock so broadcasting one ticker never blocks
// subscribe/broadcast activity on another, per spec's "per-ticker
// mutexes strongly preferred over a global lock" guidance. Grounded on
// the teacher's pkg/websocket/hub.go register/broadcast shape,
// generalized from one global client map to one map per ticker.
type Registry struct {
	book    *quote.PriceBook
	buckets map[string]*bucket
}

// NewRegistry creates a Registry with one empty bucket per ticker in
// book.
func NewRegistry(book *quote.PriceBook) *Registry {
	tickers := book.Tickers()
	buckets := make(map[string]*bucket, len(tickers))
	for _, t := range tickers {
		buckets[t] = &bucket{}
	}
	return &Registry{book: book, buckets: buckets}
}

// Subscribe allocates one fresh Queue per requested ticker and appends
// its producer end to that ticker's subscriber list. Returns the
// queues in the same order as tickers. If any ticker is unknown,
// nothing is mutated and an *ErrInvalidTicker is returned.
func (r *Registry) Subscribe(tickers []string) ([]*quote.Queue, error) {
	for _, t := range tickers {
		if _, ok := r.buckets[t]; !ok {
			return nil, &ErrInvalidTicker{Ticker: t}
		}
	}

	queues := make([]*quote.Queue, len(tickers))
	for i, t := range tickers {
		q := quote.NewQueue()
		b := r.buckets[t]
		b.mu.Lock()
		b.subs = append(b.subs, q)
		b.mu.Unlock()
		queues[i] = q
	}
	return queues, nil
}

// Unsubscribe is the advisory removal path: it eagerly prunes the given
// queues from their tickers' subscriber lists. It is safe to call with
// queues already pruned by Broadcast (e.g. because the consumer closed
// them first); authoritative cleanup always happens via Broadcast's own
// consumer-drop detection regardless of whether this was called.
func (r *Registry) Unsubscribe(tickers []string, queues []*quote.Queue) {
	n := len(tickers)
	if len(queues) < n {
		n = len(queues)
	}
	for i := 0; i < n; i++ {
		b, ok := r.buckets[tickers[i]]
		if !ok {
			continue
		}
		target := queues[i]
		b.mu.Lock()
		for j, q := range b.subs {
			if q == target {
				b.subs = append(b.subs[:j], b.subs[j+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Broadcast delivers q to every subscriber of ticker, pruning any whose
// consumer end has been closed. sent counts successful (possibly
// drop-oldest-overwritten) pushes; dropped counts pushes that evicted
// an older pending quote from a full queue. Lock-held time is bounded
// by the number of subscribers to this one ticker.
func (r *Registry) Broadcast(ticker string, q quote.Quote) (sent, dropped int) {
	b, ok := r.buckets[ticker]
	if !ok {
		return 0, 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.subs[:0]
	for _, sub := range b.subs {
		ok, wasDropped := sub.Push(q)
		if !ok {
			// Consumer end closed: drop this subscription.
			continue
		}
		sent++
		if wasDropped {
			dropped++
		}
		live = append(live, sub)
	}
	b.subs = live
	return sent, dropped
}

// SubscriberCount returns the number of live subscriptions for ticker.
func (r *Registry) SubscriberCount(ticker string) int {
	b, ok := r.buckets[ticker]
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
