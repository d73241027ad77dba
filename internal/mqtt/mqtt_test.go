package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/simplenet-proto/simplenet/internal/protocol"
	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)

	cfg := Config{BrokerURL: "tcp://127.0.0.1:1883"}.WithDefaults()
	if cfg.RequestTopic != "simplenet/request" {
		t.Fatalf("request topic = %q", cfg.RequestTopic)
	}
	if cfg.ResponseTopicPrefix != "simplenet/response" {
		t.Fatalf("response prefix = %q", cfg.ResponseTopicPrefix)
	}
	if cfg.QoS != 1 {
		t.Fatalf("qos = %d, want 1", cfg.QoS)
	}
	if cfg.ResponseTimeout <= 0 || cfg.ConnectTimeout <= 0 {
		t.Fatalf("timeouts not defaulted: %+v", cfg)
	}
	if !cfg.Enabled() {
		t.Fatalf("config with broker reported disabled")
	}
	if (Config{}).Enabled() {
		t.Fatalf("empty config reported enabled")
	}
}

func TestDecodeRequestPayload(t *testing.T) {
	testlog.Start(t)

	req, err := DecodeRequestPayload([]byte(`{"client_id": "simplenet-client-ab12cd", "path": "giorgio.net"}`))
	if err != nil {
		t.Fatalf("DecodeRequestPayload: %v", err)
	}
	if req.ClientID != "simplenet-client-ab12cd" || req.Path != "giorgio.net" {
		t.Fatalf("request = %+v", req)
	}

	if _, err := DecodeRequestPayload([]byte(`{"path": "giorgio.net"}`)); !errors.Is(err, ErrMissingClientID) {
		t.Fatalf("missing client_id error = %v, want ErrMissingClientID", err)
	}
	if _, err := DecodeRequestPayload([]byte(`not json`)); err == nil {
		t.Fatalf("malformed payload accepted")
	}
}

func TestResponsePayloadRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := protocol.NewResponse([]byte("# Benvenuto"))
	payload, err := EncodeResponsePayload(in)
	if err != nil {
		t.Fatalf("EncodeResponsePayload: %v", err)
	}
	if !strings.Contains(string(payload), `"status_code":"20"`) {
		t.Fatalf("status code not stringly typed: %s", payload)
	}

	out := DecodeResponsePayload(payload)
	if out.Status != protocol.StatusOK {
		t.Fatalf("status = %d, want %d", out.Status, protocol.StatusOK)
	}
	if out.Message != "OK" {
		t.Fatalf("message = %q, want OK", out.Message)
	}
	if string(out.Content) != "# Benvenuto" {
		t.Fatalf("content = %q", out.Content)
	}
	if out.ContentType != protocol.DefaultContentType {
		t.Fatalf("content type = %q", out.ContentType)
	}
}

func TestDecodeResponsePayloadDefaults(t *testing.T) {
	testlog.Start(t)

	out := DecodeResponsePayload([]byte(`{"content": "hi"}`))
	if out.Status != protocol.StatusServerError {
		t.Fatalf("status = %d, want %d for missing status_code", out.Status, protocol.StatusServerError)
	}
	if out.Message != "Client Error" {
		t.Fatalf("message = %q, want Client Error", out.Message)
	}
	if out.ContentType != protocol.DefaultContentType {
		t.Fatalf("content type = %q", out.ContentType)
	}
	if string(out.Content) != "hi" {
		t.Fatalf("content = %q", out.Content)
	}
}

func TestDecodeResponsePayloadMalformed(t *testing.T) {
	testlog.Start(t)

	out := DecodeResponsePayload([]byte(`{{{`))
	if out.Status != protocol.StatusServerError {
		t.Fatalf("status = %d, want %d", out.Status, protocol.StatusServerError)
	}
	if out.Message != "Client Error" {
		t.Fatalf("message = %q, want Client Error", out.Message)
	}
	if !strings.Contains(string(out.Content), "malformed broker response") {
		t.Fatalf("content = %q", out.Content)
	}
}

func TestDecodeResponsePayloadPassesNumericStatusThrough(t *testing.T) {
	testlog.Start(t)

	out := DecodeResponsePayload([]byte(`{"status_code": "42", "status_message": "Timeout", "content": ""}`))
	if out.Status != protocol.StatusTimeout {
		t.Fatalf("status = %d, want %d", out.Status, protocol.StatusTimeout)
	}
	if out.Message != "Timeout" {
		t.Fatalf("message = %q, want Timeout", out.Message)
	}
}

func TestRandomSuffixShape(t *testing.T) {
	testlog.Start(t)

	a, b := randomSuffix(), randomSuffix()
	if len(a) != 6 || len(b) != 6 {
		t.Fatalf("suffix lengths = %d,%d want 6", len(a), len(b))
	}
	if a == b {
		t.Fatalf("suffixes collided: %q", a)
	}
}
