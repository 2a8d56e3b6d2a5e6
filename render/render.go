// Package render turns render parameters into a buffer of anti-aliased pixel
// colors by jittered supersampling of the escape-time evaluator.
package render

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	mandel "github.com/marshal20/MandelbrotSet"
	"golang.org/x/sync/errgroup"
)

// Options control how, not what, a render computes.
type Options struct {
	// Workers is the number of rows rendered concurrently.
	// Zero or one renders rows in order on the calling goroutine.
	Workers int

	// Seed keys the default jitter streams. Zero picks a random seed.
	Seed uint64

	// Jitter replaces the seeded jitter streams when set.
	Jitter JitterSource

	// Progress, if set, is told the completion percentage after every row
	// and receives a final 100.
	Progress Progress
}

// Render computes every pixel of the raster described by p.
// It returns an error wrapping mandel.ErrInvalidConfiguration for
// degenerate parameters, or the context error if ctx is cancelled before
// the last pixel; in both cases no buffer is returned.
func Render(ctx context.Context, p mandel.Params, opts Options) (*mandel.Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return renderRect(ctx, p, p.Bounds(), opts)
}

type RendererImpl struct {
	OnTileRender func(tile image.Rectangle)
}

var _ mandel.Renderer = RendererImpl{}

// RenderTile renders only the pixels inside tile. With the same seed the
// result matches the corresponding part of a full Render.
func (imp RendererImpl) RenderTile(ctx context.Context, p mandel.Params, tile image.Rectangle, seed uint64) (*mandel.Buffer, error) {
	if err := p.ValidateTile(tile); err != nil {
		return nil, err
	}
	if imp.OnTileRender != nil {
		imp.OnTileRender(tile)
	}
	Logger().Debug("rendering tile", "tile", tile.String(), "seed", seed)
	return renderRect(ctx, p, tile, Options{Jitter: Seeded(seed)})
}

func renderRect(ctx context.Context, p mandel.Params, rect image.Rectangle, opts Options) (*mandel.Buffer, error) {
	src := opts.Jitter
	if src == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		src = Seeded(seed)
		Logger().Info("jitter seeded", "seed", seed)
	}

	start := time.Now()
	Logger().Info("render started",
		"rect", rect.String(), "samples", p.Samples, "maxIterations", p.MaxIterations, "workers", opts.Workers)

	buf := mandel.NewBuffer(rect)
	v := p.Viewport()
	progress := newRowCounter(rect.Dy(), opts.Progress)

	row := func(ctx context.Context, y int) error {
		if err := renderRow(ctx, v, p, buf, y, rect.Min.X, rect.Max.X, src(y)); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
		progress.rowDone()
		return nil
	}

	if opts.Workers <= 1 {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			if err := row(ctx, y); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return row(gctx, y) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		// scheduling stops silently once ctx is cancelled
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	progress.finish()
	Logger().Info("render finished", "rect", rect.String(), "elapsed", time.Since(start))
	return buf, nil
}

// renderRow writes the pixels [x0, x1) of row y. Every pixel slot is
// written exactly once and by exactly one goroutine.
func renderRow(ctx context.Context, v mandel.Viewport, p mandel.Params, buf *mandel.Buffer, y, x0, x1 int, j Jitter) error {
	seeker, _ := j.(pixelSeeker)
	for x := x0; x < x1; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seeker != nil {
			seeker.SeekPixel(x)
		}
		buf.Set(x, y, accumulate(v, p, x, y, j).Div(float64(p.Samples)))
	}
	return nil
}

// accumulate returns the channel-wise sum of the palette colors hit by
// p.Samples jittered samples of pixel (x, y).
func accumulate(v mandel.Viewport, p mandel.Params, x, y int, j Jitter) mandel.Color {
	var acc mandel.Color
	for range p.Samples {
		dx, dy := j.Offset()
		c := v.Map(float64(x)+dx, float64(y)+dy)
		acc = acc.Add(p.Palette.At(mandel.Escape(c, p.MaxIterations, p.Bound)))
	}
	return acc
}
