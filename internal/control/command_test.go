package control

import "testing"

func TestParseStreamUppercasesTickers(t *testing.T) {
	cmd, err := ParseCommand("stream udp://127.0.0.1:34255 aapl,tsla")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Verb != VerbStream {
		t.Fatalf("expected VerbStream, got %v", cmd.Verb)
	}
	if cmd.DatagramTo != "udp://127.0.0.1:34255" {
		t.Fatalf("unexpected destination: %s", cmd.DatagramTo)
	}
	want := []string{"AAPL", "TSLA"}
	if len(cmd.Tickers) != len(want) {
		t.Fatalf("expected %v, got %v", want, cmd.Tickers)
	}
	for i, tk := range want {
		if cmd.Tickers[i] != tk {
			t.Fatalf("expected %v, got %v", want, cmd.Tickers)
		}
	}
}

func TestParseStreamMissingPrefixIsInvalidAddress(t *testing.T) {
	_, err := ParseCommand("STREAM 127.0.0.1:34255 AAPL")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Invalid UDP address" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestParseStreamNoTickers(t *testing.T) {
	_, err := ParseCommand("STREAM udp://127.0.0.1:34255")
	if err == nil || err.Error() != "No tickers specified" {
		t.Fatalf("expected 'No tickers specified', got %v", err)
	}
}

func TestParseStreamEmptyTickerList(t *testing.T) {
	_, err := ParseCommand("STREAM udp://127.0.0.1:34255 ,,")
	if err == nil || err.Error() != "No tickers specified" {
		t.Fatalf("expected 'No tickers specified', got %v", err)
	}
}

func TestParsePingStopHelp(t *testing.T) {
	for _, tc := range []struct {
		in   string
		verb Verb
	}{
		{"PING", VerbPing},
		{"ping", VerbPing},
		{"STOP", VerbStop},
		{"HELP", VerbHelp},
	} {
		cmd, err := ParseCommand(tc.in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.in, err)
		}
		if cmd.Verb != tc.verb {
			t.Fatalf("%q: expected verb %v, got %v", tc.in, tc.verb, cmd.Verb)
		}
	}
}

func TestParseEmptyLineIsError(t *testing.T) {
	if _, err := ParseCommand("   "); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseUnknownVerbIsError(t *testing.T) {
	if _, err := ParseCommand("FROB"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
