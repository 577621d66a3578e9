// Package events publishes best-effort lifecycle notifications (streaming
// started, client stopped, client evicted) to NATS. It is
// entirely optional: with no URL configured, Bus is a no-op, and a
// publish failure never blocks the caller.
//
// Adapted from the teacher's pkg/nats/client.go, which consumed an
// inbound price feed; here the direction is reversed to an outbound
// fire-and-forget notification bus, since this server generates its
// own prices and has no upstream feed to subscribe to.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Bus publishes lifecycle events. The zero value is a valid no-op bus.
type Bus struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// Lifecycle event kinds.
const (
	KindClientStreaming = "client_streaming"
	KindClientStopped   = "client_stopped"
	KindClientEvicted   = "client_evicted"
)

// Event is the JSON payload published for every lifecycle transition.
type Event struct {
	Kind      string   `json:"kind"`
	ClientID  string   `json:"client_id"`
	Tickers   []string `json:"tickers,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Disabled returns a Bus whose Publish calls are no-ops. Used when
// dialing NATS failed (Connect itself returns an equivalent no-op Bus
// when no URL is configured): the event bus
// is ambient infrastructure, never a dependency the streaming path
// blocks on.
func Disabled(log zerolog.Logger) *Bus {
	return &Bus{log: log.With().Str("component", "events").Logger()}
}

// Connect dials url and returns a Bus publishing to subject. If url is
// empty, it returns a disabled Bus (no dial attempted) rather than an
// error, since the event bus is ambient infrastructure, not a required
// dependency.
func Connect(url, subject string, log zerolog.Logger) (*Bus, error) {
	log = log.With().Str("component", "events").Logger()
	if url == "" {
		log.Info().Msg("lifecycle event bus disabled, no NATS URL configured")
		return &Bus{subject: subject, log: log}, nil
	}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", url).Str("subject", subject).Msg("connected to NATS lifecycle bus")
	return &Bus{conn: conn, subject: subject, log: log}, nil
}

// Publish best-effort publishes an event. It never blocks the caller
// on network I/O beyond NATS's own async publish buffering, and a
// publish error is logged, not returned, since no caller has a
// meaningful recovery action for a lost lifecycle notification.
func (b *Bus) Publish(kind, clientID string, tickers []string) {
	if b == nil || b.conn == nil {
		return
	}

	payload, err := json.Marshal(Event{
		Kind:      kind,
		ClientID:  clientID,
		Tickers:   tickers,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	if err := b.conn.Publish(b.subject, payload); err != nil {
		b.log.Warn().Err(err).Str("kind", kind).Str("client_id", clientID).Msg("failed to publish lifecycle event")
	}
}

// Close closes the underlying connection, if any.
func (b *Bus) Close() {
	if b == nil || b.conn == nil {
		return
	}
	b.conn.Close()
}
