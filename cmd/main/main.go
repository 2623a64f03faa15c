package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ecoleta/client/internal/config"
	"ecoleta/client/internal/container"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: ecoleta <command> [flags]

commands:
  items                      list collectable categories
  states                     list federative units
  cities <uf>                list cities of a federative unit
  points --uf --city [--item N ...]
                             list collection points, filtered by category
  point <id>                 show one collection point
  create --name --email --whatsapp --uf --city --lat --lng [--item N ...] [--image path]
                             register a collection point
  worker                     retry queued submissions until interrupted
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Log)

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	err = cmd(ctx, app, os.Args[2:])
	app.Close()
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func setupLogging(cfg config.LogConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("⚠️ Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
