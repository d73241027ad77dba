package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/simplenet-proto/simplenet/internal/server"
)

// simplenetd config.toml key mapping to server runtime settings.
type fileConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	PageRoot        string   `toml:"page_root"`
	DNSFile         string   `toml:"dns_file"`
	DocExt          string   `toml:"doc_ext"`
	ReadTimeout     string   `toml:"read_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	MaxRequestBytes int      `toml:"max_request_bytes"`
	MaxConnections  int      `toml:"max_connections"`
	RateLimit       int      `toml:"rate_limit"`
	RateWindow      string   `toml:"rate_window"`
	RateIdleTTL     string   `toml:"rate_idle_ttl"`
	OpsAddr         string   `toml:"ops_addr"`
	OpsRate         float64  `toml:"ops_rate"`
	OpsBurst        int      `toml:"ops_burst"`
	CORSOrigins     []string `toml:"cors_origins"`
	RedisAddr       string   `toml:"redis_addr"`
	RedisPrefix     string   `toml:"redis_prefix"`

	MQTT mqttFileConfig `toml:"mqtt"`
}

type mqttFileConfig struct {
	Broker          string `toml:"broker"`
	RequestTopic    string `toml:"request_topic"`
	ResponsePrefix  string `toml:"response_prefix"`
	QoS             int    `toml:"qos"`
	ConnectTimeout  string `toml:"connect_timeout"`
	ResponseTimeout string `toml:"response_timeout"`
}

// simplenetd loader for TOML config with default overlay. A missing
// file is not an error: the server runs on defaults.
func loadServiceConfig(path string) (server.Config, error) {
	cfg := server.DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.Config{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("page_root") {
		cfg.PageRoot = strings.TrimSpace(raw.PageRoot)
	}
	if meta.IsDefined("dns_file") {
		cfg.DNSFile = strings.TrimSpace(raw.DNSFile)
	}
	if meta.IsDefined("doc_ext") {
		cfg.DocExt = strings.TrimSpace(raw.DocExt)
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("max_request_bytes") {
		cfg.MaxRequestBytes = raw.MaxRequestBytes
	}
	if meta.IsDefined("max_connections") {
		cfg.MaxConnections = raw.MaxConnections
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("rate_window") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RateWindow))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse rate_window: %w", err)
		}
		cfg.RateWindow = d
	}
	if meta.IsDefined("rate_idle_ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RateIdleTTL))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse rate_idle_ttl: %w", err)
		}
		cfg.RateIdleTTL = d
	}
	if meta.IsDefined("ops_addr") {
		cfg.OpsAddr = strings.TrimSpace(raw.OpsAddr)
	}
	if meta.IsDefined("ops_rate") {
		cfg.OpsRate = raw.OpsRate
	}
	if meta.IsDefined("ops_burst") {
		cfg.OpsBurst = raw.OpsBurst
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOriginList(raw.CORSOrigins)
	}
	if meta.IsDefined("redis_addr") {
		cfg.RedisAddr = strings.TrimSpace(raw.RedisAddr)
	}
	if meta.IsDefined("redis_prefix") {
		cfg.RedisPrefix = strings.TrimSpace(raw.RedisPrefix)
	}

	if meta.IsDefined("mqtt", "broker") {
		cfg.MQTT.BrokerURL = strings.TrimSpace(raw.MQTT.Broker)
	}
	if meta.IsDefined("mqtt", "request_topic") {
		cfg.MQTT.RequestTopic = strings.TrimSpace(raw.MQTT.RequestTopic)
	}
	if meta.IsDefined("mqtt", "response_prefix") {
		cfg.MQTT.ResponseTopicPrefix = strings.TrimSpace(raw.MQTT.ResponsePrefix)
	}
	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return server.Config{}, fmt.Errorf("parse mqtt.qos: %d out of range", raw.MQTT.QoS)
		}
		cfg.MQTT.QoS = byte(raw.MQTT.QoS)
	}
	if meta.IsDefined("mqtt", "connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MQTT.ConnectTimeout))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse mqtt.connect_timeout: %w", err)
		}
		cfg.MQTT.ConnectTimeout = d
	}
	if meta.IsDefined("mqtt", "response_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MQTT.ResponseTimeout))
		if err != nil {
			return server.Config{}, fmt.Errorf("parse mqtt.response_timeout: %w", err)
		}
		cfg.MQTT.ResponseTimeout = d
	}

	return cfg, nil
}

func normalizeOriginList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
