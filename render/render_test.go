package render

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"testing"

	mandel "github.com/marshal20/MandelbrotSet"
)

// distinctPalette has 16 different colors so lookups are traceable.
func distinctPalette() *mandel.Palette {
	var p mandel.Palette
	for i := range p {
		p[i] = mandel.Color{R: float64(i) / 16, G: 1 - float64(i)/16, B: float64(i%4) / 4, A: 1}
	}
	return &p
}

func smallParams() mandel.Params {
	return mandel.Params{
		Width:         2,
		Height:        2,
		Samples:       1,
		MaxIterations: 1,
		Bound:         2.0,
		Center:        mandel.Complex{},
		Span:          4.0,
		Palette:       distinctPalette(),
	}
}

func TestRenderTwoByTwo(t *testing.T) {
	p := smallParams()
	buf, err := Render(context.Background(), p, Options{Jitter: Fixed(ZeroJitter{})})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// pixel (0,0) maps to (-2,-2), far outside the bound: escapes on step 1.
	// The others map to (0,-2), (-2,0) and (0,0) and hit the cap of 1.
	// Either way every pixel shows palette entry 1.
	tests := []struct {
		x, y  int
		point mandel.Complex
	}{
		{0, 0, mandel.Complex{R: -2, I: -2}},
		{1, 0, mandel.Complex{R: 0, I: -2}},
		{0, 1, mandel.Complex{R: -2, I: 0}},
		{1, 1, mandel.Complex{R: 0, I: 0}},
	}
	for _, tt := range tests {
		if got := p.Viewport().Map(float64(tt.x), float64(tt.y)); got != tt.point {
			t.Errorf("pixel (%d,%d) maps to %v, want %v", tt.x, tt.y, got, tt.point)
		}
		if k := mandel.Escape(tt.point, p.MaxIterations, p.Bound); k != 1 {
			t.Errorf("Escape(%v) = %d, want 1", tt.point, k)
		}
		if got := buf.Pix[tt.y*p.Width+tt.x]; got != p.Palette[1] {
			t.Errorf("pixel (%d,%d) = %v, want palette[1] %v", tt.x, tt.y, got, p.Palette[1])
		}
	}
}

func TestRenderPaletteIndexFollowsEscape(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 8, 6
	p.MaxIterations = 40
	p.Center = mandel.Complex{R: -0.5}
	p.Span = 3

	buf, err := Render(context.Background(), p, Options{Jitter: Fixed(ZeroJitter{})})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	v := p.Viewport()
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			k := mandel.Escape(v.Map(float64(x), float64(y)), p.MaxIterations, p.Bound)
			if got, want := buf.At(x, y), p.Palette[k%16]; got != want {
				t.Errorf("pixel (%d,%d) = %v, want palette[%d] %v", x, y, got, k%16, want)
			}
		}
	}
}

func TestAccumulateSumsSamples(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 4, 4
	p.Samples = 4
	p.MaxIterations = 30
	p.Center = mandel.Complex{R: -0.75, I: 0.1}
	p.Span = 2.5
	offsets := [][2]float64{{-0.5, -0.5}, {0.25, -0.1}, {0.49, 0.3}, {0, 0.45}}
	v := p.Viewport()

	var want mandel.Color
	for _, o := range offsets {
		k := mandel.Escape(v.Map(1+o[0], 2+o[1]), p.MaxIterations, p.Bound)
		want = want.Add(p.Palette.At(k))
	}

	got := accumulate(v, p, 1, 2, NewSequenceJitter(offsets...))
	if got != want {
		t.Fatalf("accumulate = %v, want %v", got, want)
	}

	buf := mandel.NewBuffer(p.Bounds())
	if err := renderRow(context.Background(), v, p, buf, 2, 1, 2, NewSequenceJitter(offsets...)); err != nil {
		t.Fatalf("renderRow: %v", err)
	}
	if got, want := buf.At(1, 2), want.Div(4); got != want {
		t.Errorf("normalized pixel = %v, want %v", got, want)
	}
}

func TestRenderProgressSequential(t *testing.T) {
	p := smallParams()
	p.Height = 10

	var got []int
	_, err := Render(context.Background(), p, Options{
		Jitter:   Fixed(ZeroJitter{}),
		Progress: ProgressFunc(func(pc int) { got = append(got, pc) }),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestRenderProgressParallel(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 16, 37

	var mu sync.Mutex
	var got []int
	_, err := Render(context.Background(), p, Options{
		Workers: 4,
		Seed:    1,
		Progress: ProgressFunc(func(pc int) {
			mu.Lock()
			got = append(got, pc)
			mu.Unlock()
		}),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(got) != p.Height+1 {
		t.Fatalf("got %d reports, want %d", len(got), p.Height+1)
	}
	if !slices.IsSorted(got) || got[len(got)-1] != 100 {
		t.Errorf("progress not monotonic or not ending at 100: %v", got)
	}
}

func TestRenderSeededDeterministic(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 23, 17
	p.Samples = 3
	p.MaxIterations = 50
	p.Center = mandel.Complex{R: -0.75, I: 0.1}
	p.Span = 0.5

	seq, err := Render(context.Background(), p, Options{Seed: 42})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	par, err := Render(context.Background(), p, Options{Seed: 42, Workers: 5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !slices.Equal(seq.Pix, par.Pix) {
		t.Error("same seed gave different images for 1 and 5 workers")
	}

	tile := image.Rect(8, 4, 20, 17)
	tb, err := RendererImpl{}.RenderTile(context.Background(), p, tile, 42)
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	if !slices.Equal(tb.Pix, seq.SubBuffer(tile).Pix) {
		t.Error("tile differs from the same region of a full render")
	}
}

func TestRenderChannelsAreMeans(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 5, 5
	p.Samples = 8
	p.MaxIterations = 100
	p.Center = mandel.Complex{R: -0.7453, I: 0.1127}
	p.Span = 0.01

	buf, err := Render(context.Background(), p, Options{Seed: 3})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lo, hi := p.Palette[0], p.Palette[0]
	for _, c := range p.Palette {
		lo = mandel.Color{R: min(lo.R, c.R), G: min(lo.G, c.G), B: min(lo.B, c.B), A: min(lo.A, c.A)}
		hi = mandel.Color{R: max(hi.R, c.R), G: max(hi.G, c.G), B: max(hi.B, c.B), A: max(hi.A, c.A)}
	}
	const eps = 1e-12
	for i, c := range buf.Pix {
		if c.R < lo.R-eps || c.R > hi.R+eps || c.G < lo.G-eps || c.G > hi.G+eps ||
			c.B < lo.B-eps || c.B > hi.B+eps || c.A < lo.A-eps || c.A > hi.A+eps {
			t.Fatalf("pixel %d = %v is not a mean of palette colors", i, c)
		}
	}
}

func TestRenderInvalidConfiguration(t *testing.T) {
	for _, modify := range []func(p *mandel.Params){
		func(p *mandel.Params) { p.Width = 0 },
		func(p *mandel.Params) { p.Height = 0 },
		func(p *mandel.Params) { p.Samples = 0 },
	} {
		p := smallParams()
		modify(&p)
		buf, err := Render(context.Background(), p, Options{})
		if !errors.Is(err, mandel.ErrInvalidConfiguration) || buf != nil {
			t.Errorf("Render(%+v) = %v, %v; want ErrInvalidConfiguration", p, buf, err)
		}
	}

	_, err := RendererImpl{}.RenderTile(context.Background(), smallParams(), image.Rect(0, 0, 3, 3), 1)
	if !errors.Is(err, mandel.ErrInvalidConfiguration) {
		t.Errorf("RenderTile outside raster: %v", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	p := smallParams()
	p.Width, p.Height = 64, 64

	for _, workers := range []int{1, 4} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		buf, err := Render(ctx, p, Options{Workers: workers, Seed: 1})
		if !errors.Is(err, context.Canceled) || buf != nil {
			t.Errorf("workers=%d: Render = %v, %v; want context.Canceled", workers, buf, err)
		}
	}
}

func TestRenderTileCallback(t *testing.T) {
	var seen []image.Rectangle
	r := RendererImpl{OnTileRender: func(tile image.Rectangle) { seen = append(seen, tile) }}
	tile := image.Rect(1, 0, 2, 2)
	buf, err := r.RenderTile(context.Background(), smallParams(), tile, 9)
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	if buf.Rect != tile || len(seen) != 1 || seen[0] != tile {
		t.Errorf("buf %v, callbacks %v", buf.Rect, seen)
	}
}
