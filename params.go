package mandel

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrInvalidConfiguration reports render parameters that cannot produce an image.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIOFailure reports a failure to encode, write or transfer an image.
	ErrIOFailure = errors.New("io failure")
)

// Params is everything a render needs. There are no implicit defaults:
// zero values are rejected by Validate.
type Params struct {
	Width, Height int     // raster size in pixels
	Samples       int     // jittered samples per pixel
	MaxIterations uint32  // escape-time iteration cap
	Bound         float64 // escape radius
	Center        Complex // viewport center
	Span          float64 // plane height covered by the raster
	Palette       *Palette
}

// DefaultParams returns the configuration of the stock render.
func DefaultParams() Params {
	return Params{
		Width:         1366,
		Height:        768,
		Samples:       16,
		MaxIterations: 250,
		Bound:         2.0,
		Center:        Original.Center(),
		Span:          Original.Span(),
		Palette:       DefaultPalette(),
	}
}

// WithRegion returns p viewing region r.
func (p Params) WithRegion(r Region) Params {
	p.Center = r.Center()
	p.Span = r.Span()
	return p
}

func (p Params) Viewport() Viewport {
	return Viewport{Center: p.Center, Span: p.Span, W: p.Width, H: p.Height}
}

// Bounds returns the full raster rectangle.
func (p Params) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Validate fails fast on degenerate parameters.
func (p Params) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: raster %dx%d", ErrInvalidConfiguration, p.Width, p.Height)
	case p.Samples <= 0:
		return fmt.Errorf("%w: %d samples per pixel", ErrInvalidConfiguration, p.Samples)
	case p.MaxIterations == 0:
		return fmt.Errorf("%w: max iterations must be at least 1", ErrInvalidConfiguration)
	case !(p.Bound > 0) || math.IsInf(p.Bound, 0):
		return fmt.Errorf("%w: escape bound %v", ErrInvalidConfiguration, p.Bound)
	case !(p.Span > 0) || math.IsInf(p.Span, 0):
		return fmt.Errorf("%w: plane height %v", ErrInvalidConfiguration, p.Span)
	case !finite(p.Center.R) || !finite(p.Center.I):
		return fmt.Errorf("%w: center %v", ErrInvalidConfiguration, p.Center)
	case p.Palette == nil:
		return fmt.Errorf("%w: no palette", ErrInvalidConfiguration)
	}
	return nil
}

// ValidateTile checks p and that tile is a non-empty part of the raster.
func (p Params) ValidateTile(tile image.Rectangle) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if tile.Empty() || !tile.In(p.Bounds()) {
		return fmt.Errorf("%w: tile %s outside raster %s", ErrInvalidConfiguration, tile, p.Bounds())
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
