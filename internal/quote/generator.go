package quote

import (
	"context"
	"math/rand"
	"time"
)

// Broadcaster delivers a freshly generated quote to every subscriber of
// ticker. It is implemented by the subscription registry; kept as an
// interface here so the generator does not need to import that package.
type Broadcaster interface {
	Broadcast(ticker string, q Quote) (sent, dropped int)
}

// GeneratorStats receives per-tick counters for metrics; nil is a valid
// no-op sink.
type GeneratorStats interface {
	ObserveTick(generated int, sent int, dropped int)
}

// Generator periodically advances the PriceBook and broadcasts one
// Quote per ticker per tick. Grounded on original_source/src/generator.rs
// for the random-walk price/volume model, and on the teacher's
// pkg/websocket/hub.go broadcast loop for the "lock briefly, iterate,
// prune on failure" shape (here applied per ticker instead of globally).
type Generator struct {
	book       *PriceBook
	broadcast  Broadcaster
	stats      GeneratorStats
	interval   time.Duration
	volatility float64
	rng        *rand.Rand
}

// NewGenerator builds a Generator over book, broadcasting through b
// every interval with the given volatility (e.g. 0.01 for +/-1%).
func NewGenerator(book *PriceBook, b Broadcaster, stats GeneratorStats, interval time.Duration, volatility float64) *Generator {
	return &Generator{
		book:       book,
		broadcast:  b,
		stats:      stats,
		interval:   interval,
		volatility: volatility,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks until ctx is canceled. Intended to be run in its own
// goroutine; it never panics out to the caller.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	generated, sent, dropped := 0, 0, 0
	for ticker, state := range g.book.tickers {
		q := g.nextQuote(ticker, state)
		generated++
		s, d := g.broadcast.Broadcast(ticker, q)
		sent += s
		dropped += d
	}
	if g.stats != nil {
		g.stats.ObserveTick(generated, sent, dropped)
	}
}

// nextQuote advances one ticker's price/volume random walk and returns
// the resulting Quote. The caller must hold no lock; price mutation
// happens only here, in the generator's own goroutine, so no
// synchronization is needed on tickerState itself.
func (g *Generator) nextQuote(ticker string, state *tickerState) Quote {
	delta := (g.rng.Float64()*2 - 1) * g.volatility // in [-volatility, +volatility)
	state.price *= 1 + delta
	if state.price < 1.0 {
		state.price = 1.0
	}

	base := state.baseVolume
	if base <= 0 {
		base = 1000
	}
	stdDev := float64(base) * 0.3
	sample := g.rng.Float64()*4 - 2 // uniform on [-2, 2)
	volume := float64(base) + sample*stdDev
	if volume < 100 {
		volume = 100
	}
	if g.rng.Float64() < 0.05 {
		volume *= 3
	}

	return newQuote(ticker, state.price, int64(volume))
}
