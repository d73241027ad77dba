package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/simplenet-proto/simplenet/internal/protocol"
)

// Transport fetches pages through the broker bridge. One request is in
// flight at a time; broker silence degrades to a timeout response
// rather than an error.
type Transport struct {
	cfg      Config
	clientID string
	client   paho.Client

	mu    sync.Mutex
	inbox chan []byte
}

func NewTransport(cfg Config) *Transport {
	return &Transport{
		cfg:      cfg.WithDefaults(),
		clientID: "simplenet-client-" + randomSuffix(),
		inbox:    make(chan []byte, 1),
	}
}

// ClientID returns the broker identity used on the response topic.
func (t *Transport) ClientID() string {
	return t.clientID
}

// Connect establishes the broker session and subscribes to this
// client's response topic.
func (t *Transport) Connect(ctx context.Context) error {
	if !t.cfg.Enabled() {
		return ErrBrokerRequired
	}
	opts := paho.NewClientOptions().
		AddBroker(t.cfg.BrokerURL).
		SetClientID(t.clientID).
		SetConnectTimeout(t.cfg.ConnectTimeout).
		SetAutoReconnect(true)
	t.client = paho.NewClient(opts)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := waitToken(t.client.Connect(), t.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: connect %s: %w", t.cfg.BrokerURL, err)
	}
	topic := t.cfg.ResponseTopicPrefix + "/" + t.clientID
	if err := waitToken(t.client.Subscribe(topic, t.cfg.QoS, t.onResponse), t.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	return nil
}

func (t *Transport) onResponse(_ paho.Client, msg paho.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())
	select {
	case t.inbox <- payload:
	default:
	}
}

// Fetch publishes one request and waits for the matching response.
func (t *Transport) Fetch(ctx context.Context, path string) (*protocol.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Drop any stale payload left by an abandoned wait.
	select {
	case <-t.inbox:
	default:
	}

	payload, err := json.Marshal(Request{ClientID: t.clientID, Path: path})
	if err != nil {
		return nil, fmt.Errorf("mqtt: encode request: %w", err)
	}
	if err := waitToken(t.client.Publish(t.cfg.RequestTopic, t.cfg.QoS, false, payload), t.cfg.ConnectTimeout); err != nil {
		return protocol.ErrorResponse(protocol.StatusServerError, fmt.Sprintf("broker publish failed: %v", err)), nil
	}

	timer := time.NewTimer(t.cfg.ResponseTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return protocol.ErrorResponse(protocol.StatusTimeout, "no response from server via broker"), nil
	case raw := <-t.inbox:
		return DecodeResponsePayload(raw), nil
	}
}

func (t *Transport) Close() {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
}
