package quote

import "sync"

// defaultQueueCapacity bounds a single subscription's pending quotes.
// Chosen generously relative to the generator's default tick interval
// (500ms) so a drain task would need to stall for minutes before the
// ring wraps.
const defaultQueueCapacity = 256

// Queue is a bounded single-producer/single-consumer FIFO of Quote
// values. It never blocks the producer: once full, Push drops the
// oldest pending quote to make room for the new one. Close marks the
// queue closed; subsequent Push calls are no-ops and Pop drains any
// remaining values before reporting closure.
//
// Grounded on the teacher's lock-free multi-producer ring buffer
// (pkg/websocket/ring_buffer.go), reworked here into a mutex-guarded
// single-producer structure sized per subscription rather than a
// global 16K-slot MPSC ring — the generator is the only producer for a
// given subscription, so the lock-free machinery buys nothing.
type Queue struct {
	mu     sync.Mutex
	notify chan struct{}
	buf    []Quote
	head   int // next read position
	size   int // number of valid entries
	closed bool
}

// NewQueue creates a Queue with the default bounded capacity.
func NewQueue() *Queue {
	return &Queue{
		buf:    make([]Quote, defaultQueueCapacity),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues q, dropping the oldest entry if the queue is full.
// Returns false if the queue is closed (push discarded) or true
// otherwise, and reports whether an existing entry was dropped to make
// room, so callers can account dropped quotes in metrics.
func (q *Queue) Push(v Quote) (ok bool, dropped bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false, false
	}

	if q.size == len(q.buf) {
		// Full: drop the oldest to make room for the freshest quote.
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		dropped = true
	}

	idx := (q.head + q.size) % len(q.buf)
	q.buf[idx] = v
	q.size++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true, dropped
}

// Pop blocks until a quote is available or the queue is closed and
// drained, in which case it returns ok=false.
func (q *Queue) Pop() (v Quote, ok bool) {
	for {
		q.mu.Lock()
		if q.size > 0 {
			v = q.buf[q.head]
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.mu.Unlock()
			return v, true
		}
		if q.closed {
			q.mu.Unlock()
			return Quote{}, false
		}
		q.mu.Unlock()
		<-q.notify
	}
}

// Close marks the queue closed. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
