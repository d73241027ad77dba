package client

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/simplenet-proto/simplenet/internal/protocol"
	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

// fakeServer accepts one connection and lets respond decide what goes
// back on the wire. It returns the listener address and a channel
// carrying the request bytes the server saw.
func fakeServer(t *testing.T, respond func(conn net.Conn)) (string, chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	seen := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		raw, _ := protocol.ReadRequest(conn, 0)
		seen <- raw
		respond(conn)
	}()
	return ln.Addr().String(), seen
}

func TestFetchFramedResponse(t *testing.T) {
	testlog.Start(t)

	addr, seen := fakeServer(t, func(conn net.Conn) {
		_ = protocol.WriteResponse(conn, protocol.NewResponse([]byte("# Benvenuto")))
	})

	tr := NewTCPTransport(addr)
	resp, err := tr.Fetch(context.Background(), "giorgio.net")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != protocol.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Status, protocol.StatusOK)
	}
	if string(resp.Content) != "# Benvenuto" {
		t.Fatalf("content = %q", resp.Content)
	}

	raw := <-seen
	if got := string(raw); got != "giorgio.net\r\n\r\n" {
		t.Fatalf("server saw request %q", got)
	}
}

func TestFetchLegacyRawBody(t *testing.T) {
	testlog.Start(t)

	addr, _ := fakeServer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("plain page body"))
	})

	tr := NewTCPTransport(addr)
	resp, err := tr.Fetch(context.Background(), "home")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != protocol.StatusOK {
		t.Fatalf("status = %d, want implied %d", resp.Status, protocol.StatusOK)
	}
	if string(resp.Content) != "plain page body" {
		t.Fatalf("content = %q", resp.Content)
	}
}

func TestFetchEmptyResponseDegrades(t *testing.T) {
	testlog.Start(t)

	addr, _ := fakeServer(t, func(conn net.Conn) {})

	tr := NewTCPTransport(addr)
	resp, err := tr.Fetch(context.Background(), "home")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != protocol.StatusServerError {
		t.Fatalf("status = %d, want %d", resp.Status, protocol.StatusServerError)
	}
	if !strings.Contains(string(resp.Content), "empty response") {
		t.Fatalf("content = %q", resp.Content)
	}
}

func TestFetchReadTimeoutSynthesizesResponse(t *testing.T) {
	testlog.Start(t)

	block := make(chan struct{})
	addr, _ := fakeServer(t, func(conn net.Conn) {
		<-block
	})
	defer close(block)

	tr := NewTCPTransport(addr)
	tr.ReadTimeout = 100 * time.Millisecond
	resp, err := tr.Fetch(context.Background(), "home")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != protocol.StatusTimeout {
		t.Fatalf("status = %d, want %d", resp.Status, protocol.StatusTimeout)
	}
}

func TestFetchConnectFailureDegrades(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	tr := NewTCPTransport(addr)
	resp, err := tr.Fetch(context.Background(), "home")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Status != protocol.StatusServerError {
		t.Fatalf("status = %d, want %d", resp.Status, protocol.StatusServerError)
	}
	if !strings.Contains(string(resp.Content), "connection failed") {
		t.Fatalf("content = %q", resp.Content)
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewTCPTransport("127.0.0.1:1")
	if _, err := tr.Fetch(ctx, "home"); err == nil {
		t.Fatalf("Fetch ignored cancelled context")
	}
}

func TestParseResponseEmpty(t *testing.T) {
	testlog.Start(t)

	resp := ParseResponse(nil)
	if resp.Status != protocol.StatusServerError {
		t.Fatalf("status = %d, want %d", resp.Status, protocol.StatusServerError)
	}
}
