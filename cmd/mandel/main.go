// Command mandel renders one Mandelbrot view on this machine and writes it
// to an image file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/imgconv"
	"github.com/marben/gray_mandel/profile"
)

type config struct {
	width, height int
	re, im        float64
	scale         float64
	region        string
	factor        float64
	maxIter       int
	profile       string
	output        string
	workers       int
	thumb         int
	verbose       bool
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("mandel", flag.ContinueOnError)
	fs.IntVar(&cfg.width, "width", 800, "image width")
	fs.IntVar(&cfg.height, "height", 600, "image height")
	fs.Float64Var(&cfg.re, "re", -0.75, "real part of the view centre (with -scale) or origin offset (with -factor)")
	fs.Float64Var(&cfg.im, "im", 0, "imaginary part of the view centre or origin offset")
	fs.Float64Var(&cfg.scale, "scale", 0, "complex units per pixel around -re/-im")
	fs.StringVar(&cfg.region, "region", "", "named region instead of -re/-im: "+strings.Join(regionNames(), ", "))
	fs.Float64Var(&cfg.factor, "factor", 1, "zoom of the base window shifted by -re/-im, used when neither -scale nor -region is given")
	fs.IntVar(&cfg.maxIter, "iter", 255, "maximum iterations per pixel")
	fs.StringVar(&cfg.profile, "profile", "gray", "colour profile: "+strings.Join(profile.Names(), ", "))
	fs.StringVar(&cfg.output, "o", "mandel.png", "output file (.png, .bmp, .tif)")
	fs.IntVar(&cfg.workers, "workers", 0, "render goroutines, 0 for GOMAXPROCS")
	fs.IntVar(&cfg.thumb, "thumb", 0, "resample the output to this width")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.region != "" {
		if _, ok := mandel.Regions[cfg.region]; !ok {
			return config{}, fmt.Errorf("unknown region %q, have %s", cfg.region, strings.Join(regionNames(), ", "))
		}
		if cfg.scale != 0 {
			return config{}, errors.New("-region and -scale are exclusive")
		}
	}
	if _, err := profile.ByName(cfg.profile); err != nil {
		return config{}, err
	}
	if _, err := imgconv.FormatFromPath(cfg.output); err != nil {
		return config{}, err
	}
	if cfg.thumb < 0 {
		return config{}, fmt.Errorf("thumb width %d must not be negative", cfg.thumb)
	}
	return cfg, nil
}

func regionNames() []string {
	names := make([]string, 0, len(mandel.Regions))
	for n := range mandel.Regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// viewport picks the view from, in order, -region, -scale and -factor.
func (cfg config) viewport() mandel.Viewport {
	switch {
	case cfg.region != "":
		return mandel.Regions[cfg.region].Viewport(cfg.width, cfg.height)
	case cfg.scale != 0:
		return mandel.Viewport{Center: complex(cfg.re, cfg.im), Scale: cfg.scale, Width: cfg.width, Height: cfg.height}
	default:
		return mandel.ViewportFromOrigin(complex(cfg.re, cfg.im), cfg.factor, cfg.width, cfg.height)
	}
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

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
