package mandel

import (
	"fmt"
	"math"
)

// MaxPixels caps Width*Height. A larger grid either overflows int or asks for a
// buffer no machine can hold.
const MaxPixels = 1 << 28

// Viewport places a Width×Height pixel grid over the complex plane.
//
// Center is the plane point under the middle of the grid and Scale is the
// size of one (square) pixel in plane units. Row 0 is the top edge of the
// window: the real part grows with x and the imaginary part shrinks with y.
type Viewport struct {
	Center        complex128
	Scale         float64
	Width, Height int
}

// Validate reports the first parameter that makes v unusable.
func (v Viewport) Validate() error {
	switch {
	case !(v.Scale > 0) || math.IsInf(v.Scale, 0):
		return &ParamError{Param: "scale", Value: v.Scale, Constraint: "> 0", Err: ErrInvalidViewport}
	case v.Width < 1:
		return &ParamError{Param: "width", Value: v.Width, Constraint: ">= 1", Err: ErrInvalidViewport}
	case v.Height < 1:
		return &ParamError{Param: "height", Value: v.Height, Constraint: ">= 1", Err: ErrInvalidViewport}
	case v.Width > MaxPixels/v.Height:
		return &ParamError{Param: "resolution", Value: fmt.Sprintf("%dx%d", v.Width, v.Height),
			Constraint: fmt.Sprintf("<= %d pixels", MaxPixels), Err: ErrInvalidViewport}
	case math.IsNaN(real(v.Center)) || math.IsNaN(imag(v.Center)) ||
		math.IsInf(real(v.Center), 0) || math.IsInf(imag(v.Center), 0):
		return &ParamError{Param: "center", Value: v.Center, Constraint: "finite", Err: ErrInvalidViewport}
	}
	return nil
}

// Point maps pixel (x, y) to the plane point at the centre of that pixel.
// Sampling at cell centres needs no division by the resolution, so
// single-row and single-column grids sample along the centre line.
func (v Viewport) Point(x, y int) complex128 {
	re := real(v.Center) + (float64(x)+0.5-float64(v.Width)/2)*v.Scale
	im := imag(v.Center) + (float64(v.Height)/2-float64(y)-0.5)*v.Scale
	return complex(re, im)
}

// Bounds returns the bottom-left and top-right plane corners covered by v.
func (v Viewport) Bounds() (lo, hi complex128) {
	hw := float64(v.Width) / 2 * v.Scale
	hh := float64(v.Height) / 2 * v.Scale
	lo = complex(real(v.Center)-hw, imag(v.Center)-hh)
	hi = complex(real(v.Center)+hw, imag(v.Center)+hh)
	return lo, hi
}

// Pixels returns Width*Height.
func (v Viewport) Pixels() int {
	return v.Width * v.Height
}

// ViewportFromRegion returns a w×h viewport centred on r that shows all of r.
func ViewportFromRegion(r Region, w, h int) Viewport {
	v := Viewport{Center: r.Center(), Width: w, Height: h}
	if w > 0 && h > 0 {
		v.Scale = math.Max(math.Abs(r.Xmax-r.Xmin)/float64(w), math.Abs(r.Ymax-r.Ymin)/float64(h))
	}
	return v
}

// baseWindow is the window shown at factor 1 by ViewportFromOrigin.
var baseWindow = Region{Xmin: -2, Xmax: 0.5, Ymin: -1.2, Ymax: 1.2}

// ViewportFromOrigin shifts the base window re in [-2, 0.5], im in
// [-1.2, 1.2] by origin after scaling it by factor. Smaller factors zoom in.
func ViewportFromOrigin(origin complex128, factor float64, w, h int) Viewport {
	r := Region{
		Xmin: real(origin) + baseWindow.Xmin*factor,
		Xmax: real(origin) + baseWindow.Xmax*factor,
		Ymin: imag(origin) + baseWindow.Ymin*factor,
		Ymax: imag(origin) + baseWindow.Ymax*factor,
	}
	v := ViewportFromRegion(r, w, h)
	if !(factor > 0) {
		// keep the invalid sign visible to Validate instead of hiding it behind Abs
		v.Scale = factor
	}
	return v
}
