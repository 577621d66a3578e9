// Command quoteserver runs the quote-streaming server: a quote
// generator, subscription fan-out fabric, control-channel listener,
// heartbeat receiver, and reaper, wired together and run until an
// interrupt or termination signal arrives.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"quoteserver/internal/client"
	"quoteserver/internal/config"
	"quoteserver/internal/control"
	"quoteserver/internal/events"
	"quoteserver/internal/heartbeat"
	"quoteserver/internal/logging"
	"quoteserver/internal/metrics"
	"quoteserver/internal/quote"
	"quoteserver/internal/subscription"
)

func main() {
	bootLog := logging.New("info", "json")

	cfg, err := config.Load(&bootLog)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	cfg.LogFields(log)
	log.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting quoteserver")

	book, err := quote.LoadInventory(cfg.TickerFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ticker inventory")
	}
	log.Info().Strs("tickers", book.Tickers()).Msg("ticker inventory loaded")

	m := metrics.New()

	bus, err := events.Connect(cfg.NATSURL, cfg.NATSSubject, log)
	if err != nil {
		log.Warn().Err(err).Msg("lifecycle event bus unavailable, continuing without it")
		bus = events.Disabled(log)
	}
	defer bus.Close()

	subs := subscription.NewRegistry(book)
	clients := client.NewRegistry()

	generator := quote.NewGenerator(book, subs, m, cfg.TickInterval, cfg.Volatility)

	controlServer, err := control.NewServer(cfg.ControlAddr, clients, subs, bus, m, cfg.MaxAcceptRate, cfg.MaxAcceptBurst, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind control channel")
	}

	hbReceiver, err := heartbeat.NewReceiver(cfg.HeartbeatAddr, clients, m, cfg.MaxPingRate, cfg.MaxPingBurst, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind heartbeat socket")
	}

	reaper := client.NewReaper(clients, controlServer, m, cfg.HeartbeatTimeout, cfg.ReaperInterval, log)
	sampler := metrics.NewSampler(m, cfg.MetricsInterval)

	ctx, cancel := context.WithCancel(context.Background())

	go generator.Run(ctx)
	go controlServer.Serve(ctx)
	go hbReceiver.Run(ctx)
	go reaper.Run(ctx)
	go sampler.Run(ctx)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info().Msg("quoteserver stopped")
}
