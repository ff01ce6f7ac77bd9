// Package mandel computes grayscale escape-time intensity buffers for a
// rectangular window of the complex plane.
//
// A Viewport places a pixel grid over the plane, an Evaluator classifies each
// sample point by how quickly its orbit under z = z*z + c leaves the radius-2
// disc, and Generate collects the results into a row-major Buffer. Encoding,
// colour profiles and transports live in sibling packages and only consume
// the Buffer.
package mandel

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Full set, re in [-2, 1], im in [-1.5, 1.5]
	Full = Region{
		Xmin: -2,
		Xmax: 1,
		Ymin: -1.5,
		Ymax: 1.5,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: 0.25,
		Xmax: 0.35,
		Ymin: -0.05,
		Ymax: 0.05,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Regions indexes the landmark presets by the names commands accept.
var Regions = map[string]Region{
	"full":       Full,
	"seahorse":   SeahorseValley,
	"elephant":   ElephantValley,
	"spiral":     SpiralMinibrot,
	"triple":     TripleSpiral,
	"dragon":     ValleyOfTheDragon,
	"minispiral": MinibrotInMiniSpiral,
}

// Center returns the midpoint of the region.
func (r Region) Center() complex128 {
	return complex((r.Xmin+r.Xmax)/2, (r.Ymin+r.Ymax)/2)
}

// Viewport returns a w×h viewport centred on r that shows all of r.
// The scale is chosen by the tighter axis, so a region whose aspect ratio
// differs from the pixel grid gains margin on the other axis.
func (r Region) Viewport(w, h int) Viewport {
	return ViewportFromRegion(r, w, h)
}
