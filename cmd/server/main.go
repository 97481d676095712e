package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jdy4236/mask/config"
	"github.com/jdy4236/mask/internal/app"
)

func main() {
	configPath := flag.String("config", "config.json", "service configuration file")
	flag.Parse()

	path := *configPath
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	cfg, err := config.ReadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", path, err)
		os.Exit(1)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	// Blocks until a shutdown signal arrives.
	if err := application.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}
