package main

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	mandel "github.com/marben/gray_mandel"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-width", "64", "-height", "48", "-region", "spiral", "-iter", "500", "-profile", "hue", "-o", "x.bmp"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.width != 64 || cfg.height != 48 || cfg.region != "spiral" || cfg.maxIter != 500 || cfg.profile != "hue" || cfg.output != "x.bmp" {
		t.Errorf("cfg = %+v", cfg)
	}

	for _, args := range [][]string{
		{"-region", "atlantis"},
		{"-region", "full", "-scale", "0.01"},
		{"-profile", "sepia"},
		{"-o", "x.jpg"},
		{"-thumb", "-1"},
		{"-iter", "many"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v) succeeded", args)
		}
	}
}

func TestConfigViewport(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want mandel.Viewport
	}{
		{
			name: "region",
			args: []string{"-width", "100", "-height", "50", "-region", "full"},
			want: mandel.Full.Viewport(100, 50),
		},
		{
			name: "scale",
			args: []string{"-width", "10", "-height", "20", "-re", "0.25", "-im", "-0.5", "-scale", "0.001"},
			want: mandel.Viewport{Center: complex(0.25, -0.5), Scale: 0.001, Width: 10, Height: 20},
		},
		{
			name: "factor",
			args: []string{"-width", "250", "-height", "240", "-re", "0", "-im", "0", "-factor", "0.5"},
			want: mandel.ViewportFromOrigin(0, 0.5, 250, 240),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			if got := cfg.viewport(); got != tt.want {
				t.Errorf("viewport = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "full.tif")
	cfg, err := parseFlags([]string{"-width", "40", "-height", "30", "-region", "full", "-iter", "1000", "-o", out, "-workers", "3"})
	if err != nil {
		t.Fatal(err)
	}

	var summary strings.Builder
	if err := run(context.Background(), cfg, &summary); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatalf("tiff.Decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Errorf("bounds = %v", img.Bounds())
	}

	for _, want := range []string{"40 x 30 (1,200 pixels)", "iterations: 1,000", "bounded:", "escaped:"} {
		if !strings.Contains(summary.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, summary.String())
		}
	}
}

func TestRun_Thumbnail(t *testing.T) {
	out := filepath.Join(t.TempDir(), "thumb.png")
	cfg, err := parseFlags([]string{"-width", "80", "-height", "60", "-iter", "50", "-profile", "log", "-thumb", "20", "-o", out})
	if err != nil {
		t.Fatal(err)
	}
	var summary strings.Builder
	if err := run(context.Background(), cfg, &summary); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(summary.String(), "(width 20)") {
		t.Errorf("summary = %s", summary.String())
	}
}

func TestRun_Invalid(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseFlags([]string{"-iter", "0", "-o", filepath.Join(dir, "x.png")})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), cfg, &strings.Builder{}); err == nil {
		t.Error("run accepted a zero iteration budget")
	}

	cfg, err = parseFlags([]string{"-scale", "-1", "-o", filepath.Join(dir, "y.png")})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), cfg, &strings.Builder{}); err == nil {
		t.Error("run accepted a negative scale")
	}
	if _, err := os.Stat(filepath.Join(dir, "y.png")); !os.IsNotExist(err) {
		t.Error("output written for an invalid view")
	}
}
