// Package client implements the client registry (per-client
// configuration plus liveness bookkeeping) and the reaper that evicts
// clients whose heartbeats have lapsed.
package client

import (
	"strings"
	"sync"
	"time"

	"quoteserver/internal/quote"
)

// Config is the per-client record created on a successful STREAM,
// mutated only through Refresh/RefreshByIP (LastPing, from heartbeat
// datagrams or a control-channel PING) and destroyed by
// STOP, disconnect, or reaper eviction.
type Config struct {
	DatagramAddr string
	Tickers      []string
	LastPing     int64 // unix seconds
}

type entry struct {
	config Config
	queues []*quote.Queue // consumer ends owned by this client's emitter
}

// Registry maps client id (the textual control-channel peer address)
// to its Config. Grounded on original_source/src/client_manager.rs
// (ClientManager) and the teacher's pkg/websocket/hub.go register map.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*entry
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*entry)}
}

// Add inserts a client, overwriting (and returning) any prior entry for
// the same id so the caller can tear down its subscriptions.
func (r *Registry) Add(id string, cfg Config, queues []*quote.Queue) (prev Config, prevQueues []*quote.Queue, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.clients[id]; ok {
		prev, prevQueues, replaced = old.config, old.queues, true
	}
	r.clients[id] = &entry{config: cfg, queues: queues}
	return prev, prevQueues, replaced
}

// Remove extracts the entry for id, if present.
func (r *Registry) Remove(id string) (cfg Config, queues []*quote.Queue, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.clients[id]
	if !exists {
		return Config{}, nil, false
	}
	delete(r.clients, id)
	return e.config, e.queues, true
}

// Refresh updates last_ping for id to now, returning whether id exists.
func (r *Registry) Refresh(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.clients[id]
	if !ok {
		return false
	}
	e.config.LastPing = time.Now().Unix()
	return true
}

// RefreshByIP scans for any client id beginning with ip and refreshes
// the first match. Heartbeat datagrams arrive from an ephemeral source
// port distinct from the control-channel port, so their source address
// rarely equals a client_id outright; this bridges that mismatch (see
// spec §4.4 / §9).
func (r *Registry) RefreshByIP(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := ip + ":"
	for id, e := range r.clients {
		if strings.HasPrefix(id, prefix) {
			e.config.LastPing = time.Now().Unix()
			return true
		}
	}
	return false
}

// Exists reports whether id currently has an entry.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[id]
	return ok
}

// StaleIDs returns the ids of clients whose last_ping is older than
// timeout relative to now.
func (r *Registry) StaleIDs(now time.Time, timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []string
	cutoff := now.Add(-timeout).Unix()
	for id, e := range r.clients {
		if e.config.LastPing < cutoff {
			stale = append(stale, id)
		}
	}
	return stale
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
