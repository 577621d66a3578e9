package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Evictor is whatever knows how to tear down a client's subscriptions
// and close its queues; implemented by the control package so the
// reaper does not need to import subscription or emitter directly.
type Evictor interface {
	EvictClient(id string)
}

// ReaperStats receives per-sweep counters for metrics; nil is a valid
// no-op sink.
type ReaperStats interface {
	ObserveSweep(evicted int)
}

// Reaper runs a 1Hz sweep over a Registry, evicting clients whose
// last_ping has lapsed beyond timeout. Grounded on
// original_source/src/client_manager.rs's stale-client sweep loop
// (start_ping_handler), split out from the heartbeat receiver into its
// own task per spec §4.3's "reaper task runs at 1Hz" framing.
type Reaper struct {
	registry *Registry
	evictor  Evictor
	stats    ReaperStats
	timeout  time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewReaper builds a Reaper that evicts clients idle beyond timeout,
// checking every interval (typically 1s).
func NewReaper(registry *Registry, evictor Evictor, stats ReaperStats, timeout, interval time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		evictor:  evictor,
		stats:    stats,
		timeout:  timeout,
		interval: interval,
		log:      log.With().Str("component", "reaper").Logger(),
	}
}

// Run sweeps until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reaper) sweep() {
	stale := r.registry.StaleIDs(time.Now(), r.timeout)
	for _, id := range stale {
		r.log.Info().Str("client_id", id).Msg("evicting stale client")
		r.evictor.EvictClient(id)
	}
	if r.stats != nil {
		r.stats.ObserveSweep(len(stale))
	}
}
