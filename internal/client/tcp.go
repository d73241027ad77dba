package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/simplenet-proto/simplenet/internal/protocol"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 15 * time.Second

	// MaxResponseBytes caps how much of a response a client will
	// buffer before giving up on the peer.
	MaxResponseBytes = 1 << 20
)

// TCPTransport speaks the native SimpleNet wire protocol: one framed
// request, then read until the server closes the connection.
type TCPTransport struct {
	Addr           string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxBytes       int
}

func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{
		Addr:           addr,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		MaxBytes:       MaxResponseBytes,
	}
}

func (t *TCPTransport) Fetch(ctx context.Context, path string) (*protocol.Response, error) {
	dialer := net.Dialer{Timeout: t.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return protocol.ErrorResponse(protocol.StatusTimeout, fmt.Sprintf("connection to %s timed out", t.Addr)), nil
		}
		return protocol.ErrorResponse(protocol.StatusServerError, fmt.Sprintf("connection failed: %v", err)), nil
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(t.ConnectTimeout))
	if err := protocol.WriteRequest(conn, path); err != nil {
		return protocol.ErrorResponse(protocol.StatusServerError, fmt.Sprintf("request write failed: %v", err)), nil
	}

	_ = conn.SetReadDeadline(time.Now().Add(t.ReadTimeout))
	raw, err := io.ReadAll(io.LimitReader(conn, int64(t.MaxBytes)))
	if err != nil && len(raw) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return protocol.ErrorResponse(protocol.StatusTimeout, fmt.Sprintf("no response from %s", t.Addr)), nil
		}
		return protocol.ErrorResponse(protocol.StatusServerError, fmt.Sprintf("response read failed: %v", err)), nil
	}
	if err != nil {
		// Partial payload; decode what arrived.
		log.Debug().Str("addr", t.Addr).Err(err).Msg("response truncated")
	}
	return ParseResponse(raw), nil
}

// ParseResponse interprets raw response bytes, degrading malformed or
// empty payloads to a displayable error response. The renderer always
// receives a well-formed response.
func ParseResponse(raw []byte) *protocol.Response {
	if len(raw) == 0 {
		return protocol.ErrorResponse(protocol.StatusServerError, "empty response from server")
	}
	return protocol.DecodeResponse(raw)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
