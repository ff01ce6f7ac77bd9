// Package profile maps escape-time results onto colours.
//
// A Profile is the only thing an image adapter needs to turn a
// mandel.Buffer into pixels, so new colourings plug in without touching
// the coordinate mapping or the evaluator.
package profile

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	mandel "github.com/marben/gray_mandel"
)

// Profile converts one result into a colour sample.
// Implementations must be pure functions of (r, maxIter).
type Profile interface {
	Color(r mandel.Result, maxIter int) color.Color
}

// Gray is the linear 8-bit scale of mandel.Intensity. Bounded points are black.
type Gray struct{}

func (Gray) Color(r mandel.Result, maxIter int) color.Color {
	return color.Gray{Y: mandel.Intensity(r, maxIter)}
}

// LogGray spreads low escape counts over more levels than Gray, which keeps
// detail visible when maxIter is large. Bounded points are black and every
// escaped point is at least level 1.
type LogGray struct{}

func (LogGray) Color(r mandel.Result, maxIter int) color.Color {
	return color.Gray{Y: logLevel(r, maxIter)}
}

func logLevel(r mandel.Result, maxIter int) uint8 {
	n, ok := r.Escaped()
	if !ok {
		return mandel.BoundedLevel
	}
	if maxIter <= 1 || n >= maxIter {
		return 255
	}
	t := math.Log(float64(n)) / math.Log(float64(maxIter))
	return uint8(1 + math.Floor(t*254))
}

// Inverted flips the gray level of P, so Bounded points become white.
type Inverted struct {
	P Profile
}

func (i Inverted) Color(r mandel.Result, maxIter int) color.Color {
	g := color.GrayModel.Convert(i.P.Color(r, maxIter)).(color.Gray)
	return color.Gray{Y: 255 - g.Y}
}

// Hue walks the HSV colour wheel with the escape count. Bounded points are
// opaque black.
type Hue struct {
	// Period is the number of escape steps per trip round the wheel.
	// Zero means 50.
	Period int
}

func (h Hue) Color(r mandel.Result, _ int) color.Color {
	n, ok := r.Escaped()
	if !ok {
		return color.RGBA{A: 255}
	}
	period := h.Period
	if period <= 0 {
		period = 50
	}
	return hsv(float64(n%period)/float64(period), 1, 1)
}

// hsv converts a hue in [0, 1) with saturation and value in [0, 1].
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

var byName = map[string]Profile{
	"gray":     Gray{},
	"log":      LogGray{},
	"inverted": Inverted{P: Gray{}},
	"hue":      Hue{},
}

// ByName returns the profile registered under name.
func ByName(name string) (Profile, error) {
	p, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (have %v)", name, Names())
	}
	return p, nil
}

// Names lists the registered profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
