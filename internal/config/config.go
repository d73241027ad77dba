// Package config generates and validates the TOML files shipped with
// the simplenet binaries.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig is the validation view of simplenetd.toml. Keys the
// daemon understands but configgen does not check are ignored here.
type ServerConfig struct {
	ListenAddr  string     `toml:"listen_addr"`
	PageRoot    string     `toml:"page_root"`
	DNSFile     string     `toml:"dns_file"`
	RateLimit   int        `toml:"rate_limit"`
	OpsAddr     string     `toml:"ops_addr"`
	CorsOrigins []string   `toml:"cors_origins"`
	MQTT        MQTTConfig `toml:"mqtt"`
}

type MQTTConfig struct {
	Broker       string `toml:"broker"`
	RequestTopic string `toml:"request_topic"`
	QoS          int    `toml:"qos"`
}

// BrowserConfig is the validation view of simplenet.toml.
type BrowserConfig struct {
	StartPage     string `toml:"start_page"`
	ClearScreen   bool   `toml:"clear_screen"`
	BookmarksFile string `toml:"bookmarks_file"`
	HistoryFile   string `toml:"history_file"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:5555"
	}
	if cfg.PageRoot == "" {
		cfg.PageRoot = "pages"
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadBrowserConfig(path string) (BrowserConfig, error) {
	var cfg BrowserConfig
	if err := loadToml(path, &cfg); err != nil {
		return BrowserConfig{}, err
	}
	if cfg.StartPage == "" {
		cfg.StartPage = "default"
	}
	if err := ValidateBrowserConfig(cfg); err != nil {
		return BrowserConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("server config missing listen_addr")
	}
	if strings.TrimSpace(cfg.PageRoot) == "" {
		return fmt.Errorf("server config missing page_root")
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("server config rate_limit must not be negative")
	}
	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return fmt.Errorf("server config mqtt.qos must be 0, 1, or 2")
	}
	if strings.TrimSpace(cfg.MQTT.Broker) != "" &&
		strings.TrimSpace(cfg.MQTT.RequestTopic) == "" {
		return fmt.Errorf("server config mqtt.request_topic required when broker is set")
	}
	return nil
}

func ValidateBrowserConfig(cfg BrowserConfig) error {
	if strings.TrimSpace(cfg.StartPage) == "" {
		return fmt.Errorf("browser config missing start_page")
	}
	return nil
}
