package main

import (
	"context"
	"errors"
	"image"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	mandel "github.com/marshal20/MandelbrotSet"
	"github.com/marshal20/MandelbrotSet/render"
)

func TestSplitRectNoClip(t *testing.T) {
	tiles := splitRectNoClip(image.Rect(0, 0, 130, 70), 64, 64)
	want := []image.Rectangle{
		image.Rect(0, 0, 64, 64), image.Rect(64, 0, 128, 64), image.Rect(128, 0, 130, 64),
		image.Rect(0, 64, 64, 70), image.Rect(64, 64, 128, 70), image.Rect(128, 64, 130, 70),
	}
	if !slices.Equal(tiles, want) {
		t.Errorf("tiles = %v, want %v", tiles, want)
	}

	area := 0
	for _, tl := range splitRectNoClip(image.Rect(3, 5, 200, 99), 17, 13) {
		area += tl.Dx() * tl.Dy()
	}
	if area != 197*94 {
		t.Errorf("tiles cover %d pixels, want %d", area, 197*94)
	}
}

func testParams() mandel.Params {
	p := mandel.DefaultParams()
	p.Width, p.Height = 150, 70
	p.Samples = 2
	p.MaxIterations = 64
	return p
}

func TestSchedulerMatchesLocalRender(t *testing.T) {
	p := testParams()
	iws := newImgWorkScheduler(p, 99)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := iws.render(context.Background(), render.RendererImpl{}); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := iws.GetImage(context.Background())
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	want, err := render.Render(context.Background(), p, render.Options{Seed: 99})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !slices.Equal(got.Pix, want.Pix) {
		t.Error("distributed image differs from local render with the same seed")
	}

	st := iws.status()
	if !st.Done || st.TilesDone != st.TilesTotal || st.Finished != 1 || st.Workers != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestSchedulerOverConnections(t *testing.T) {
	p := testParams()
	iws := newImgWorkScheduler(p, 5)

	for range 2 {
		serverSide, workerSide := net.Pipe()
		go mandel.NewRendererService(render.RendererImpl{}).Serve(context.Background(), workerSide)
		go func() {
			defer serverSide.Close()
			if err := iws.render(context.Background(), mandel.NewRendererClient(serverSide)); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := iws.GetImage(ctx); err != nil {
		t.Fatalf("GetImage: %v", err)
	}
}

type failingRenderer struct{}

func (failingRenderer) RenderTile(context.Context, mandel.Params, image.Rectangle, uint64) (*mandel.Buffer, error) {
	return nil, errors.New("worker gone")
}

func TestSchedulerReissuesFailedTiles(t *testing.T) {
	p := testParams()
	iws := newImgWorkScheduler(p, 1)

	if err := iws.render(context.Background(), failingRenderer{}); err == nil {
		t.Fatal("render with failing renderer returned nil")
	}
	if st := iws.status(); st.Done || st.TilesDone != 0 {
		t.Fatalf("status after failure = %+v", st)
	}

	if err := iws.render(context.Background(), render.RendererImpl{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	select {
	case <-iws.done():
	default:
		t.Fatal("image not complete after retry")
	}
	if _, err := iws.GetImage(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("GetImage: %v", err)
	}
}

func TestTileFinishedIgnoresDuplicates(t *testing.T) {
	p := testParams()
	p.Width, p.Height = 64, 64
	iws := newImgWorkScheduler(p, 1)

	tile, ok := iws.popTile()
	if !ok {
		t.Fatal("no tile")
	}
	again, ok := iws.popTile()
	if !ok || again != tile {
		t.Fatalf("in-process tile not re-issued: %v %v", again, ok)
	}

	first := mandel.NewBuffer(tile)
	first.Pix[0] = mandel.Color{R: 1}
	iws.tileFinished(first)
	iws.tileFinished(mandel.NewBuffer(tile))

	if got := iws.buf.At(0, 0); got != (mandel.Color{R: 1}) {
		t.Errorf("duplicate result overwrote tile: %v", got)
	}
	if st := iws.status(); !st.Done || st.Finished != 1 {
		t.Errorf("status = %+v", st)
	}
	if _, ok := iws.popTile(); ok {
		t.Error("popTile returned a tile after completion")
	}
}
