package client

import (
	"testing"
	"time"
)

func TestAddThenRemove(t *testing.T) {
	r := NewRegistry()

	r.Add("1.2.3.4:5000", Config{DatagramAddr: "udp://1.2.3.4:6000", Tickers: []string{"AAPL"}, LastPing: time.Now().Unix()}, nil)

	if !r.Exists("1.2.3.4:5000") {
		t.Fatal("expected client to exist after Add")
	}

	cfg, _, ok := r.Remove("1.2.3.4:5000")
	if !ok {
		t.Fatal("expected Remove to find the client")
	}
	if cfg.DatagramAddr != "udp://1.2.3.4:6000" {
		t.Fatalf("unexpected config returned: %+v", cfg)
	}
	if r.Exists("1.2.3.4:5000") {
		t.Fatal("expected client to be gone after Remove")
	}
}

func TestAddReplacesPriorEntry(t *testing.T) {
	r := NewRegistry()

	r.Add("id", Config{Tickers: []string{"AAPL"}}, nil)
	prev, _, replaced := r.Add("id", Config{Tickers: []string{"TSLA"}}, nil)

	if !replaced {
		t.Fatal("expected second Add for same id to report replaced=true")
	}
	if len(prev.Tickers) != 1 || prev.Tickers[0] != "AAPL" {
		t.Fatalf("expected prior config to be returned, got %+v", prev)
	}
}

func TestRefreshByIPFallsBackOnPortMismatch(t *testing.T) {
	r := NewRegistry()
	r.Add("10.0.0.5:5555", Config{LastPing: 0}, nil)

	if r.Refresh("10.0.0.5:9999") {
		t.Fatal("exact-id refresh should fail for a different ephemeral port")
	}
	if !r.RefreshByIP("10.0.0.5") {
		t.Fatal("expected RefreshByIP to find the client by address prefix")
	}
}

func TestStaleIDs(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	r.Add("fresh", Config{LastPing: now.Unix()}, nil)
	r.Add("stale", Config{LastPing: now.Add(-1 * time.Hour).Unix()}, nil)

	stale := r.StaleIDs(now, 15*time.Second)
	if len(stale) != 1 || stale[0] != "stale" {
		t.Fatalf("expected only 'stale' to be reported, got %v", stale)
	}
}
