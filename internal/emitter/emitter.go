// Package emitter implements the per-client datagram emitter: one
// drain task per subscribed ticker, moving quotes from that
// subscription's queue onto the client's declared UDP destination.
package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"quoteserver/internal/quote"
)

// maxConsecutiveSendErrors bounds how many send failures in a row a
// single drain task tolerates before giving up on that subscription,
// per spec §4.5 / §7.
const maxConsecutiveSendErrors = 5

// Stats receives per-send outcome counters for metrics; nil is a valid
// no-op sink.
type Stats interface {
	ObserveSend(ticker string, ok bool)
}

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Start parses dest (which must have the "udp://" prefix), binds a
// fresh ephemeral UDP source socket, and launches one drain goroutine
// per (ticker, queue) pair. It returns immediately; the emitter runs
// until every drain task has exited, logging its own completion.
//
// Grounded on original_source/src/udp_sender.rs for the drain contract
// (read, filter is implicit since queues are already per-ticker,
// serialize, send-one-datagram, stop after repeated errors) and on the
// teacher's pkg/websocket/client.go for the per-client goroutine and
// pooled-buffer shape (pkg/websocket/message_pool.go), here simplified
// from size-classed buffers to one sync.Pool of plain bytes.Buffer
// values since quote JSON is a few dozen bytes regardless of ticker.
func Start(clientID, dest string, tickers []string, queues []*quote.Queue, stats Stats, log zerolog.Logger) error {
	addr, err := parseUDPDest(dest)
	if err != nil {
		return err
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("emitter: bind source socket for %s: %w", clientID, err)
	}

	log = log.With().Str("component", "emitter").Str("client_id", clientID).Logger()

	var wg sync.WaitGroup
	n := len(tickers)
	if len(queues) < n {
		n = len(queues)
	}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(ticker string, q *quote.Queue) {
			defer wg.Done()
			drain(conn, clientID, ticker, q, stats, log)
		}(tickers[i], queues[i])
	}

	go func() {
		wg.Wait()
		conn.Close()
		log.Info().Msg("emitter stopped, all drain tasks exited")
	}()

	return nil
}

func drain(conn *net.UDPConn, clientID, ticker string, q *quote.Queue, stats Stats, log zerolog.Logger) {
	consecutiveErrors := 0
	for {
		v, ok := q.Pop()
		if !ok {
			log.Debug().Str("ticker", ticker).Msg("drain task exiting: subscription closed")
			return
		}

		buf := bufPool.Get().(*bytes.Buffer)
		buf.Reset()
		if err := json.NewEncoder(buf).Encode(v); err != nil {
			// Our own Quote always marshals; this would be a programmer error.
			bufPool.Put(buf)
			continue
		}

		_, err := conn.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		bufPool.Put(buf)

		if stats != nil {
			stats.ObserveSend(ticker, err == nil)
		}

		if err != nil {
			consecutiveErrors++
			log.Warn().Err(err).Str("ticker", ticker).Int("consecutive_errors", consecutiveErrors).Msg("quote send failed")
			if consecutiveErrors >= maxConsecutiveSendErrors {
				log.Error().Str("ticker", ticker).Msg("drain task exiting: too many consecutive send errors")
				return
			}
			continue
		}
		consecutiveErrors = 0
	}
}

// parseUDPDest validates the mandatory "udp://" prefix and resolves
// the remaining host:port.
func parseUDPDest(dest string) (*net.UDPAddr, error) {
	const prefix = "udp://"
	if !strings.HasPrefix(dest, prefix) {
		return nil, fmt.Errorf("emitter: destination %q missing required %q prefix", dest, prefix)
	}
	hostport := strings.TrimPrefix(dest, prefix)
	return net.ResolveUDPAddr("udp", hostport)
}
