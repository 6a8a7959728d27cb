package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/eringen/showcase"
	"github.com/eringen/showcase/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "sweep":
		err = runSweep(os.Args[2:], os.Stdout)
	case "version":
		fmt.Printf("showcase %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (showcase.Config, *zap.Logger, error) {
	cfg, err := showcase.LoadConfig()
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func runServe() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := showcase.New(cfg, showcase.WithLogger(log))
	defer app.Close()
	return app.Start(ctx)
}

func printUsage() {
	fmt.Println(`showcase - gallery and blog backend with an admin API

Usage:
  showcase [command] [arguments]

Commands:
  serve                       Run the HTTP server (default)
  sweep [-dry-run] [-grace d] Remove media files no gallery image or post references
  version                     Print the showcase version
  help                        Show this help message

Configuration is read from the environment and an optional .env file.`)
}
