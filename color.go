package mandel

// Color holds red, green, blue and alpha channels, each nominally in [0, 1].
// It doubles as the per-pixel accumulator while samples are summed.
type Color struct {
	R, G, B, A float64
}

// Add returns the channel-wise sum of c and o.
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// Div returns c with every channel divided by n.
func (c Color) Div(n float64) Color {
	return Color{R: c.R / n, G: c.G / n, B: c.B / n, A: c.A / n}
}

// PaletteSize is the number of entries in a Palette.
const PaletteSize = 16

// Palette is a fixed cycle of colors indexed by iteration count.
// It is passed by value or pointer but never modified after construction.
type Palette [PaletteSize]Color

// At returns the color for an iteration count, wrapping modulo PaletteSize.
func (p *Palette) At(iterations uint32) Color {
	return p[iterations%PaletteSize]
}

// DefaultPalette returns the blue/orange gradient used by the default render.
// Each call returns a fresh copy.
func DefaultPalette() *Palette {
	return &Palette{
		{R: 0.26, G: 0.1, B: 0.06, A: 1},
		{R: 0.1, G: 0.03, B: 0.1, A: 1},
		{R: 0.3, G: 0.01, B: 0.18, A: 1},
		{R: 0.02, G: 0.02, B: 0.28, A: 1},
		{R: 0.0, G: 0.03, B: 0.4, A: 1},
		{R: 0.05, G: 0.17, B: 0.54, A: 1},
		{R: 0.1, G: 0.3, B: 0.7, A: 1},
		{R: 0.25, G: 0.5, B: 0.82, A: 1},
		{R: 0.53, G: 0.71, B: 0.9, A: 1},
		{R: 0.83, G: 0.93, B: 0.97, A: 1},
		{R: 0.95, G: 0.91, B: 0.75, A: 1},
		{R: 0.97, G: 0.78, B: 0.37, A: 1},
		{R: 1.0, G: 0.67, B: 0.0, A: 1},
		{R: 0.8, G: 0.5, B: 0.0, A: 1},
		{R: 0.6, G: 0.34, B: 0.0, A: 1},
		{R: 0.42, G: 0.2, B: 0.02, A: 1},
	}
}
