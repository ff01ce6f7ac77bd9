// Command cliclient lends its CPU to the Mandelbrot server as a tile worker,
// then asks it for the finished image and saves it to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/imgconv"
)

type config struct {
	tcpAddr string
	wsURL   string
	output  string
	noFetch bool
	verbose bool
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("cliclient", flag.ContinueOnError)
	fs.StringVar(&cfg.tcpAddr, "server", "localhost:8081", "server tcp address")
	fs.StringVar(&cfg.wsURL, "ws", "", "connect over websocket instead of tcp, e.g. ws://localhost:8080/ws")
	fs.StringVar(&cfg.output, "o", "mandel.png", "output file (.png, .bmp, .tif)")
	fs.BoolVar(&cfg.noFetch, "no-fetch", false, "only render tiles, do not fetch the image")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if !cfg.noFetch {
		if _, err := imgconv.FormatFromPath(cfg.output); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("flags: %v", err)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	mandel.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting CLI client")
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
