package mandel

import "math"

// Complex is a point in the complex plane.
// Operations return new values and never modify the receiver.
type Complex struct {
	R, I float64
}

// Square returns c², (r²−i², 2ri).
func (c Complex) Square() Complex {
	return Complex{R: c.R*c.R - c.I*c.I, I: 2 * c.R * c.I}
}

func (c Complex) Add(o Complex) Complex {
	return Complex{R: c.R + o.R, I: c.I + o.I}
}

// Abs returns the euclidean magnitude sqrt(r²+i²).
func (c Complex) Abs() float64 {
	return math.Sqrt(c.R*c.R + c.I*c.I)
}

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Center returns the middle of the region.
func (r Region) Center() Complex {
	return Complex{R: (r.Xmin + r.Xmax) / 2, I: (r.Ymin + r.Ymax) / 2}
}

// Span returns the height of the region on the imaginary axis.
// The horizontal extent is derived from the raster aspect ratio instead.
func (r Region) Span() float64 {
	return r.Ymax - r.Ymin
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Original is the view rendered by default: a spiral near seahorse valley
	Original = Region{
		Xmin: -0.7453 - 3.25e-4,
		Xmax: -0.7453 + 3.25e-4,
		Ymin: 0.1127 - 3.25e-4,
		Ymax: 0.1127 + 3.25e-4,
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
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
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

// Regions maps flag-friendly names to the landmarks above.
var Regions = map[string]Region{
	"original":             Original,
	"seahorsevalley":       SeahorseValley,
	"elephantvalley":       ElephantValley,
	"spiralminibrot":       SpiralMinibrot,
	"triplespiral":         TripleSpiral,
	"valleyofthedragon":    ValleyOfTheDragon,
	"minibrotinminispiral": MinibrotInMiniSpiral,
}

// Viewport maps raster pixels onto a rectangle of the complex plane.
// The plane height is fixed by Span; the plane width follows the raster
// aspect ratio so circles stay circles regardless of raster shape.
type Viewport struct {
	Center Complex
	Span   float64
	W, H   int // raster size in pixels
}

func (v Viewport) Aspect() float64 {
	return float64(v.W) / float64(v.H)
}

func (v Viewport) PlaneWidth() float64 {
	return v.Span * v.Aspect()
}

func (v Viewport) PlaneHeight() float64 {
	return v.Span
}

// Map converts a sub-pixel raster position (pixel index plus jitter) to a
// point in the plane, going through normalized device coordinates in [-1, 1).
func (v Viewport) Map(px, py float64) Complex {
	nx := px/float64(v.W)*2 - 1
	ny := py/float64(v.H)*2 - 1
	return Complex{
		R: v.Center.R + nx*v.PlaneWidth()/2,
		I: v.Center.I + ny*v.PlaneHeight()/2,
	}
}
