package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/imgconv"
	"github.com/marben/gray_mandel/profile"
	"github.com/marben/gray_mandel/render"
)

// run renders the configured view, saves it to cfg.output and writes a
// summary to out.
func run(ctx context.Context, cfg config, out io.Writer) error {
	v := cfg.viewport()
	p, err := profile.ByName(cfg.profile)
	if err != nil {
		return err
	}

	slog.Debug("rendering", "center", v.Center, "scale", v.Scale, "width", v.Width, "height", v.Height, "max_iter", cfg.maxIter)
	start := time.Now()
	buf, err := render.Parallel(ctx, v, cfg.maxIter, cfg.workers)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	renderTime := time.Since(start)

	start = time.Now()
	img := imgconv.Image(buf, p)
	if cfg.thumb > 0 {
		if img, err = imgconv.Scale(img, cfg.thumb, 0); err != nil {
			return err
		}
	}
	if err := imgconv.Save(cfg.output, img); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	saveTime := time.Since(start)

	return printSummary(out, summary{
		viewport:   v,
		maxIter:    cfg.maxIter,
		stats:      buf.Stats(),
		output:     cfg.output,
		outSize:    img.Bounds().Size().X,
		renderTime: renderTime,
		saveTime:   saveTime,
	})
}

type summary struct {
	viewport   mandel.Viewport
	maxIter    int
	stats      mandel.Stats
	output     string
	outSize    int // output width
	renderTime time.Duration
	saveTime   time.Duration
}

func printSummary(w io.Writer, s summary) error {
	pr := message.NewPrinter(language.English)
	lo, hi := s.viewport.Bounds()
	total := s.viewport.Pixels()

	if _, err := pr.Fprintf(w, "resolution: %d x %d (%d pixels)\n", s.viewport.Width, s.viewport.Height, total); err != nil {
		return err
	}
	pr.Fprintf(w, "window:     re [%g, %g] im [%g, %g]\n", real(lo), real(hi), imag(lo), imag(hi))
	pr.Fprintf(w, "iterations: %d\n", s.maxIter)
	pr.Fprintf(w, "bounded:    %d (%.1f%%)\n", s.stats.Bounded, percent(s.stats.Bounded, total))
	pr.Fprintf(w, "escaped:    %d (%.1f%%)", s.stats.Escaped, percent(s.stats.Escaped, total))
	if s.stats.Escaped > 0 {
		pr.Fprintf(w, ", steps %d..%d", s.stats.MinEscape, s.stats.MaxEscape)
	}
	pr.Fprintf(w, "\n")
	pr.Fprintf(w, "render:     %v\n", s.renderTime.Round(time.Millisecond))
	_, err := pr.Fprintf(w, "saved:      %s (width %d) in %v\n", s.output, s.outSize, s.saveTime.Round(time.Millisecond))
	return err
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
