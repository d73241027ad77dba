package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/simplenet-proto/simplenet/internal/browser"
	"github.com/simplenet-proto/simplenet/internal/client"
	"github.com/simplenet-proto/simplenet/internal/logging"
	"github.com/simplenet-proto/simplenet/internal/mqtt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simplenet: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr       = flag.String("addr", "127.0.0.1:5555", "SimpleNet server address (tcp transport)")
		transport  = flag.String("transport", "tcp", "transport: tcp or mqtt")
		broker     = flag.String("broker", "tcp://127.0.0.1:1883", "broker URL (mqtt transport)")
		configPath = flag.String("config", "simplenet.toml", "path to TOML config file")
	)
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadBrowserConfig(*configPath)
	if err != nil {
		return err
	}
	if page := strings.TrimSpace(flag.Arg(0)); page != "" {
		cfg.StartPage = page
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tr client.Transport
	switch strings.ToLower(strings.TrimSpace(*transport)) {
	case "", "tcp":
		tr = client.NewTCPTransport(*addr)
	case "mqtt":
		mcfg := mqtt.DefaultConfig()
		mcfg.BrokerURL = strings.TrimSpace(*broker)
		mt := mqtt.NewTransport(mcfg)
		if err := mt.Connect(ctx); err != nil {
			return err
		}
		defer mt.Close()
		tr = mt
	default:
		return fmt.Errorf("invalid transport %q (expected tcp or mqtt)", *transport)
	}

	err = browser.New(cfg, tr, os.Stdin, os.Stdout).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
