package control

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"quoteserver/internal/client"
	"quoteserver/internal/emitter"
	"quoteserver/internal/events"
	"quoteserver/internal/quote"
	"quoteserver/internal/subscription"
)

const welcomeBanner = "Welcome to Quote Server!\n" +
	"Available commands:\n" +
	"STREAM udp://<host>:<port> <ticker1>,<ticker2>,... - Start streaming quotes\n" +
	"PING - Send ping to server\n" +
	"STOP - Stop current streaming\n" +
	"HELP - Show this help\n"

const helpText = "Available commands:\n" +
	"STREAM udp://<host>:<port> <ticker1>,<ticker2>,... - Start streaming quotes to UDP address\n" +
	"PING - Send ping to keep connection alive\n" +
	"STOP - Stop current streaming\n" +
	"HELP - Show this help\n\n" +
	"Example:\n" +
	"STREAM udp://127.0.0.1:34254 AAPL,TSLA,GOOGL\n"

// Stats receives per-command counters for metrics; nil is a valid
// no-op sink.
type Stats interface {
	CommandReceived(verb string)
	CommandRejected(reason string)
	ClientAccepted()
	ClientDisconnected()
	ClientEvicted()
}

// Server accepts control-channel connections and runs the per-client
// state machine described in the command-grammar table. Grounded on
// original_source/src/tcp_server.rs's handle_client/handle_command
// split, generalized from a per-thread loop to a per-connection
// goroutine.
type Server struct {
	listener *net.TCPListener
	clients  *client.Registry
	subs     *subscription.Registry
	bus      *events.Bus
	stats    Stats
	limiter  *rate.Limiter
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	conn net.Conn
}

// NewServer binds addr and returns a Server ready to Serve. acceptRate
// and acceptBurst configure the connection-accept flood limiter.
func NewServer(addr string, clients *client.Registry, subs *subscription.Registry, bus *events.Bus, stats Stats, acceptRate float64, acceptBurst int, log zerolog.Logger) (*Server, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		clients:  clients,
		subs:     subs,
		bus:      bus,
		stats:    stats,
		limiter:  rate.NewLimiter(rate.Limit(acceptRate), acceptBurst),
		log:      log.With().Str("component", "control").Logger(),
		sessions: make(map[string]*session),
	}, nil
}

// Serve accepts connections until ctx is canceled.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn().Err(err).Msg("accept error")
			continue
		}

		if !s.limiter.Allow() {
			s.log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("accept rate limit exceeded, rejecting connection")
			conn.Close()
			continue
		}

		if s.stats != nil {
			s.stats.ClientAccepted()
		}
		go s.handle(conn)
	}
}

// EvictClient implements client.Evictor: it tears down a client's
// subscriptions and closes its control connection. Called by the
// reaper from a different goroutine than the one owning the
// connection, so it only touches shared registries and the net.Conn,
// never session-local state.
func (s *Server) EvictClient(id string) {
	cfg, queues, ok := s.clients.Remove(id)
	if !ok {
		return
	}
	s.subs.Unsubscribe(cfg.Tickers, queues)
	for _, q := range queues {
		q.Close()
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.conn.Close()
	}

	if s.stats != nil {
		s.stats.ClientEvicted()
	}
	s.bus.Publish(events.KindClientEvicted, id, cfg.Tickers)
}

func (s *Server) handle(conn net.Conn) {
	id := conn.RemoteAddr().String()
	log := s.log.With().Str("client_id", id).Logger()
	log.Info().Msg("client connected")

	s.mu.Lock()
	s.sessions[id] = &session{conn: conn}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		conn.Close()
	}()

	if _, err := conn.Write([]byte(welcomeBanner)); err != nil {
		log.Warn().Err(err).Msg("failed to send welcome banner")
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if line == "" {
				log.Info().Msg("client disconnected")
				s.teardown(id)
				return
			}
		}

		input := strings.TrimSpace(line)
		if input != "" {
			if !s.dispatch(conn, id, input, log) {
				return
			}
		}

		if err != nil {
			log.Info().Err(err).Msg("client connection closed")
			s.teardown(id)
			return
		}
	}
}

// dispatch parses and runs one command line, returning false if the
// connection should close.
func (s *Server) dispatch(conn net.Conn, id, input string, log zerolog.Logger) bool {
	cmd, err := ParseCommand(input)
	if err != nil {
		pe, _ := err.(*ParseError)
		reason := "invalid_format"
		if pe != nil {
			reason = pe.Reason
		}
		if s.stats != nil {
			s.stats.CommandRejected(reason)
		}
		log.Debug().Str("input", input).Err(err).Msg("parse error")
		fmt.Fprintf(conn, "ERROR: %s\n", err.Error())
		conn.Write([]byte("Type HELP for available commands\n"))
		return true
	}

	if s.stats != nil {
		s.stats.CommandReceived(cmd.Verb.String())
	}

	switch cmd.Verb {
	case VerbStream:
		return s.handleStream(conn, id, cmd, log)
	case VerbPing:
		return s.handlePing(conn, id, log)
	case VerbStop:
		s.handleStop(conn, id, log)
		return false
	case VerbHelp:
		conn.Write([]byte(helpText))
		return true
	default:
		return true
	}
}

func (s *Server) handleStream(conn net.Conn, id string, cmd Command, log zerolog.Logger) bool {
	queues, err := s.subs.Subscribe(cmd.Tickers)
	if err != nil {
		reason := "invalid_ticker"
		if s.stats != nil {
			s.stats.CommandRejected(reason)
		}
		fmt.Fprintf(conn, "ERROR: %s\n", err.Error())
		return true
	}

	cfg := client.Config{
		DatagramAddr: cmd.DatagramTo,
		Tickers:      cmd.Tickers,
		LastPing:     time.Now().Unix(),
	}
	prevCfg, prevQueues, replaced := s.clients.Add(id, cfg, queues)
	if replaced {
		s.subs.Unsubscribe(prevCfg.Tickers, prevQueues)
		for _, q := range prevQueues {
			q.Close()
		}
	}

	var emitStats emitter.Stats
	if es, ok := s.stats.(emitter.Stats); ok {
		emitStats = es
	}
	if err := emitter.Start(id, cmd.DatagramTo, cmd.Tickers, queues, emitStats, log); err != nil {
		log.Error().Err(err).Msg("failed to start emitter")
		fmt.Fprintf(conn, "ERROR: %s\n", err.Error())
		return true
	}

	log.Info().Strs("tickers", cmd.Tickers).Str("dest", cmd.DatagramTo).Msg("streaming started")
	s.bus.Publish(events.KindClientStreaming, id, cmd.Tickers)
	conn.Write([]byte("STREAMING_STARTED\n"))
	return true
}

func (s *Server) handlePing(conn net.Conn, id string, log zerolog.Logger) bool {
	if s.clients.Refresh(id) {
		conn.Write([]byte("PONG\n"))
	} else {
		if s.stats != nil {
			s.stats.CommandRejected("not_streaming")
		}
		conn.Write([]byte("ERROR: Not streaming\n"))
	}
	return true
}

func (s *Server) handleStop(conn net.Conn, id string, log zerolog.Logger) {
	s.teardown(id)
	conn.Write([]byte("STREAMING_STOPPED\n"))
}

func (s *Server) teardown(id string) {
	cfg, queues, ok := s.clients.Remove(id)
	if !ok {
		if s.stats != nil {
			s.stats.ClientDisconnected()
		}
		return
	}
	s.subs.Unsubscribe(cfg.Tickers, queues)
	for _, q := range queues {
		q.Close()
	}
	if s.stats != nil {
		s.stats.ClientDisconnected()
	}
	s.bus.Publish(events.KindClientStopped, id, cfg.Tickers)
}

var _ quote.Broadcaster = (*subscription.Registry)(nil)
