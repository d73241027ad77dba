package mqtt

import (
	"context"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/simplenet-proto/simplenet/internal/protocol"
)

// Handler resolves one raw request for an identified client.
type Handler func(clientID string, raw []byte) *protocol.Response

// Responder serves SimpleNet requests arriving over the broker. It
// shares the page pipeline with the TCP endpoint through the handler.
type Responder struct {
	cfg     Config
	handler Handler
	client  paho.Client
}

func NewResponder(cfg Config, handler Handler) *Responder {
	return &Responder{cfg: cfg.WithDefaults(), handler: handler}
}

// Start connects to the broker and subscribes to the request topic.
// The ctx only bounds startup; Stop tears the session down.
func (r *Responder) Start(ctx context.Context) error {
	if !r.cfg.Enabled() {
		return ErrBrokerRequired
	}
	opts := paho.NewClientOptions().
		AddBroker(r.cfg.BrokerURL).
		SetClientID("simplenet-server-" + randomSuffix()).
		SetConnectTimeout(r.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	r.client = paho.NewClient(opts)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := waitToken(r.client.Connect(), r.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: connect %s: %w", r.cfg.BrokerURL, err)
	}
	if err := waitToken(r.client.Subscribe(r.cfg.RequestTopic, r.cfg.QoS, r.onRequest), r.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", r.cfg.RequestTopic, err)
	}
	log.Info().
		Str("broker", r.cfg.BrokerURL).
		Str("topic", r.cfg.RequestTopic).
		Msg("mqtt responder listening")
	return nil
}

func (r *Responder) onRequest(_ paho.Client, msg paho.Message) {
	req, err := DecodeRequestPayload(msg.Payload())
	if err != nil {
		log.Warn().Err(err).Msg("mqtt request rejected")
		return
	}

	resp := r.handler(req.ClientID, []byte(req.Path))
	payload, err := EncodeResponsePayload(resp)
	if err != nil {
		log.Error().Err(err).Msg("mqtt response encode failed")
		return
	}

	topic := r.cfg.ResponseTopicPrefix + "/" + req.ClientID
	if err := waitToken(r.client.Publish(topic, r.cfg.QoS, false, payload), r.cfg.ConnectTimeout); err != nil {
		log.Warn().Str("topic", topic).Err(err).Msg("mqtt response publish failed")
		return
	}
	log.Debug().
		Str("client", req.ClientID).
		Str("path", req.Path).
		Int("status", int(resp.Status)).
		Msg("mqtt request served")
}

func (r *Responder) Stop() {
	if r.client != nil && r.client.IsConnected() {
		r.client.Disconnect(250)
	}
}
