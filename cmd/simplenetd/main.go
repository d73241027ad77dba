package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/simplenet-proto/simplenet/internal/logging"
	"github.com/simplenet-proto/simplenet/internal/server"
)

func main() {
	configPath := flag.String("config", "simplenetd.toml", "path to TOML config file")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simplenetd: %v\n", err)
		os.Exit(1)
	}

	svc, err := server.NewServiceWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simplenetd: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "simplenetd: %v\n", err)
		os.Exit(1)
	}
}
