// Package mqtt bridges the SimpleNet request/response exchange over an
// MQTT broker for clients that cannot reach the TCP endpoint.
//
// Requests arrive as JSON on a shared request topic; responses are
// published to a per-client response topic. Status codes travel as
// strings on this transport.
package mqtt

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/simplenet-proto/simplenet/internal/protocol"
)

var (
	ErrBrokerRequired  = errors.New("mqtt: broker url required")
	ErrTimeout         = errors.New("mqtt: operation timed out")
	ErrMissingClientID = errors.New("mqtt: request missing client_id")
)

// Config holds broker and topic settings shared by both bridge ends.
type Config struct {
	BrokerURL           string
	RequestTopic        string
	ResponseTopicPrefix string
	QoS                 byte
	ConnectTimeout      time.Duration
	ResponseTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BrokerURL:           "",
		RequestTopic:        "simplenet/request",
		ResponseTopicPrefix: "simplenet/response",
		QoS:                 1,
		ConnectTimeout:      10 * time.Second,
		ResponseTimeout:     15 * time.Second,
	}
}

// Enabled reports whether a broker endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.BrokerURL) != ""
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.RequestTopic) == "" {
		c.RequestTopic = def.RequestTopic
	}
	if strings.TrimSpace(c.ResponseTopicPrefix) == "" {
		c.ResponseTopicPrefix = def.ResponseTopicPrefix
	}
	if c.QoS == 0 {
		c.QoS = def.QoS
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	return c
}

// Request is the JSON payload clients publish to the request topic.
type Request struct {
	ClientID string `json:"client_id"`
	Path     string `json:"path"`
}

// Response is the JSON payload published to a client's response topic.
type Response struct {
	StatusCode    string `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Content       string `json:"content"`
	ContentType   string `json:"content_type"`
}

// DecodeRequestPayload validates one request-topic payload.
func DecodeRequestPayload(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, fmt.Errorf("mqtt: decode request: %w", err)
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" {
		return Request{}, ErrMissingClientID
	}
	return req, nil
}

// EncodeResponsePayload maps a protocol response onto the bridge JSON
// shape.
func EncodeResponsePayload(resp *protocol.Response) ([]byte, error) {
	ct := resp.ContentType
	if ct == "" {
		ct = protocol.DefaultContentType
	}
	payload, err := json.Marshal(Response{
		StatusCode:    strconv.Itoa(int(resp.Status)),
		StatusMessage: resp.Message,
		Content:       string(resp.Content),
		ContentType:   ct,
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt: encode response: %w", err)
	}
	return payload, nil
}

// DecodeResponsePayload interprets one response-topic payload.
// Undecodable payloads and missing fields degrade to a displayable
// client error rather than failing.
func DecodeResponsePayload(payload []byte) *protocol.Response {
	var raw Response
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &protocol.Response{
			Status:      protocol.StatusServerError,
			Message:     "Client Error",
			ContentType: protocol.DefaultContentType,
			Content:     []byte(fmt.Sprintf("malformed broker response: %v", err)),
		}
	}

	status := protocol.StatusServerError
	if code, err := strconv.Atoi(strings.TrimSpace(raw.StatusCode)); err == nil {
		status = protocol.Status(code)
	}
	message := strings.TrimSpace(raw.StatusMessage)
	if message == "" {
		message = "Client Error"
	}
	ct := strings.TrimSpace(raw.ContentType)
	if ct == "" {
		ct = protocol.DefaultContentType
	}
	return &protocol.Response{
		Status:      status,
		Message:     message,
		ContentType: ct,
		Content:     []byte(raw.Content),
	}
}

// randomSuffix yields a short hex tag for broker client identifiers.
func randomSuffix() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%06x", time.Now().UnixNano()&0xffffff)
	}
	return hex.EncodeToString(buf)
}

func waitToken(tok paho.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return tok.Error()
}
