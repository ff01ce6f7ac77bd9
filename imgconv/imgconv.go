// Package imgconv wraps intensity buffers into standard image containers and
// encodes them to PNG, BMP or TIFF.
package imgconv

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/profile"
)

// Gray wraps the intensity levels of buf in an *image.Gray of the same size.
// Row 0 of the image is row 0 of the buffer (the top of the viewport).
func Gray(buf *mandel.Buffer) *image.Gray {
	return &image.Gray{
		Pix:    buf.Levels(),
		Stride: buf.Width,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
}

// Image renders buf through p. The plain Gray profile produces an
// *image.Gray, everything else an *image.RGBA.
func Image(buf *mandel.Buffer, p profile.Profile) image.Image {
	if _, ok := p.(profile.Gray); ok || p == nil {
		return Gray(buf)
	}
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := color.RGBAModel.Convert(p.Color(buf.At(x, y), buf.MaxIter)).(color.RGBA)
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Scale resamples src to w×h. A non-positive w or h is derived from the
// other so the aspect ratio is kept.
func Scale(src image.Image, w, h int) (image.Image, error) {
	sb := src.Bounds()
	switch {
	case w <= 0 && h <= 0:
		return nil, fmt.Errorf("scale: no target size given")
	case sb.Empty():
		return nil, fmt.Errorf("scale: empty source %v", sb)
	case w <= 0:
		w = max(1, h*sb.Dx()/sb.Dy())
	case h <= 0:
		h = max(1, w*sb.Dy()/sb.Dx())
	}

	dr := image.Rect(0, 0, w, h)
	var dst draw.Image
	if _, ok := src.(*image.Gray); ok {
		dst = image.NewGray(dr)
	} else {
		dst = image.NewRGBA(dr)
	}
	draw.CatmullRom.Scale(dst, dr, src, sb, draw.Src, nil)
	return dst, nil
}

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// ParseFormat accepts a format name or file extension, with or without the
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// FormatFromPath picks the format from path's extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%q has no extension", path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	}
	return "image/png"
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("unsupported image format %q", f)
}

// Save encodes img into path using the format named by its extension.
func Save(path string, img image.Image) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := Encode(out, img, f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return nil
}
