// Package heartbeat implements the UDP liveness receiver: replies to
// PING datagrams with PONG and refreshes the sending client's
// last-ping timestamp.
package heartbeat

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"quoteserver/internal/client"
)

// Stats receives per-datagram counters for metrics; nil is a valid
// no-op sink.
type Stats interface {
	HeartbeatReceived()
}

// Receiver binds a UDP socket and answers PING datagrams. Grounded on
// original_source/src/client_manager.rs's start_ping_handler, with the
// per-IP flood limiter adapted from the teacher's src/resource_guard.go
// (ResourceGuard rate limiters) and
// ws/internal/shared/limits/connection_rate_limiter.go.
type Receiver struct {
	conn      *net.UDPConn
	registry  *client.Registry
	stats     Stats
	log       zerolog.Logger
	limitersM sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit float64
	burst     int
}

// NewReceiver binds addr (e.g. ":34254") and returns a Receiver ready
// to Run. perIPRate/perIPBurst configure the token bucket applied to
// each source IP to absorb heartbeat floods.
func NewReceiver(addr string, registry *client.Registry, stats Stats, perIPRate float64, perIPBurst int, log zerolog.Logger) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		conn:      conn,
		registry:  registry,
		stats:     stats,
		log:       log.With().Str("component", "heartbeat").Logger(),
		limiters:  make(map[string]*rate.Limiter),
		rateLimit: perIPRate,
		burst:     perIPBurst,
	}, nil
}

// Run reads datagrams until ctx is canceled.
func (r *Receiver) Run(ctx context.Context) {
	defer r.conn.Close()

	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		r.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, src, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			r.log.Warn().Err(err).Msg("heartbeat read error")
			continue
		}

		payload := strings.TrimSpace(string(buf[:n]))
		if payload != "PING" {
			r.log.Debug().Str("payload", payload).Str("src", src.String()).Msg("discarding non-PING heartbeat payload")
			continue
		}

		if !r.allow(src.IP.String()) {
			r.log.Warn().Str("src", src.String()).Msg("heartbeat rate limit exceeded, dropping")
			continue
		}

		if r.stats != nil {
			r.stats.HeartbeatReceived()
		}

		clientID := src.String()
		if !r.registry.Refresh(clientID) {
			r.registry.RefreshByIP(src.IP.String())
		}

		if _, err := r.conn.WriteToUDP([]byte("PONG"), src); err != nil {
			r.log.Warn().Err(err).Str("src", src.String()).Msg("failed to send PONG")
		}
	}
}

func (r *Receiver) allow(ip string) bool {
	r.limitersM.Lock()
	l, ok := r.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.rateLimit), r.burst)
		r.limiters[ip] = l
	}
	r.limitersM.Unlock()
	return l.Allow()
}
