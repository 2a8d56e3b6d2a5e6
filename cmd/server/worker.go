package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	mandel "github.com/marshal20/MandelbrotSet"
)

const tileSize = 64

type imgWorkScheduler struct {
	workers int
	params  mandel.Params
	seed    uint64
	buf     *mandel.Buffer

	ctx       context.Context
	ctxCancel context.CancelFunc

	totalPixels    int
	finishedPixels int
	totalTiles     int

	unstarted map[image.Rectangle]struct{}
	inProcess map[image.Rectangle]struct{}
	m         sync.Mutex
}

func newImgWorkScheduler(p mandel.Params, seed uint64) *imgWorkScheduler {
	buf := mandel.NewBuffer(p.Bounds())
	allTilesSlice := splitRectNoClip(buf.Bounds(), tileSize, tileSize)
	allTiles := make(map[image.Rectangle]struct{}, len(allTilesSlice))
	for _, t := range allTilesSlice {
		allTiles[t] = struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &imgWorkScheduler{
		params:      p,
		seed:        seed,
		buf:         buf,
		unstarted:   allTiles,
		inProcess:   make(map[image.Rectangle]struct{}),
		totalPixels: p.Width * p.Height,
		totalTiles:  len(allTiles),
		ctx:         ctx,
		ctxCancel:   cancel,
	}
}

func (iws *imgWorkScheduler) popTile() (tile image.Rectangle, found bool) {
	iws.m.Lock()
	defer iws.m.Unlock()

	// Get unstarted tile
	if len(iws.unstarted) > 0 {
		for tile = range iws.unstarted {
			break
		}
		delete(iws.unstarted, tile)

		// Move popped tile to currently processed tiles
		iws.inProcess[tile] = struct{}{}
		return tile, true
	}

	// If there is no unstarted tile, we work again on a started one.
	// A slow or vanished worker then cannot stall the image.
	if len(iws.inProcess) > 0 {
		for tile = range iws.inProcess {
			break
		}

		return tile, true
	}

	return image.Rectangle{}, false
}

// GetImage implements mandel.ImgProvider. It blocks until every tile is in.
func (iws *imgWorkScheduler) GetImage(ctx context.Context) (*mandel.Buffer, error) {
	select {
	case <-iws.ctx.Done():
		return iws.buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ mandel.ImgProvider = (*imgWorkScheduler)(nil)

func (iws *imgWorkScheduler) done() <-chan struct{} {
	return iws.ctx.Done()
}

func (iws *imgWorkScheduler) finished() float32 {
	iws.m.Lock()
	defer iws.m.Unlock()
	return float32(iws.finishedPixels) / float32(iws.totalPixels)
}

type schedulerStatus struct {
	Workers    int     `json:"workers"`
	Finished   float32 `json:"finished"`
	TilesDone  int     `json:"tilesDone"`
	TilesTotal int     `json:"tilesTotal"`
	Done       bool    `json:"done"`
}

func (iws *imgWorkScheduler) status() schedulerStatus {
	iws.m.Lock()
	defer iws.m.Unlock()
	return schedulerStatus{
		Workers:    iws.workers,
		Finished:   float32(iws.finishedPixels) / float32(iws.totalPixels),
		TilesDone:  iws.totalTiles - len(iws.unstarted) - len(iws.inProcess),
		TilesTotal: iws.totalTiles,
		Done:       iws.ctx.Err() != nil,
	}
}

func (iws *imgWorkScheduler) tileFinished(tile *mandel.Buffer) {
	defer log.Printf("finished: %f", iws.finished())

	rect := tile.Bounds()
	iws.m.Lock()
	defer iws.m.Unlock()

	// A re-issued tile may come back twice; only the first copy counts.
	if _, found := iws.inProcess[rect]; !found {
		return
	}

	iws.buf.Draw(tile)
	iws.finishedPixels += rect.Dx() * rect.Dy()
	delete(iws.inProcess, rect)

	if len(iws.unstarted) == 0 && len(iws.inProcess) == 0 {
		iws.ctxCancel()
	}
}

func (iws *imgWorkScheduler) incActiveWorker() {
	iws.m.Lock()
	iws.workers++
	w := iws.workers
	iws.m.Unlock()

	log.Printf("workers: %d", w)
}

func (iws *imgWorkScheduler) decActiveWorkers() {
	iws.m.Lock()
	iws.workers--
	w := iws.workers
	iws.m.Unlock()

	log.Printf("workers: %d", w)
}

// render renders unfinished tiles on the provided Renderer until none are left.
// It can be called from multiple goroutines in parallel.
func (iws *imgWorkScheduler) render(ctx context.Context, renderer mandel.Renderer) error {
	iws.incActiveWorker()
	defer iws.decActiveWorkers()

	for {
		tile, found := iws.popTile()
		if !found {
			return nil
		}
		tileBuf, err := renderer.RenderTile(ctx, iws.params, tile, iws.seed)
		if err != nil {
			return fmt.Errorf("render of tile %s: %w", tile, err)
		}
		if tileBuf == nil || tileBuf.Bounds() != tile || len(tileBuf.Pix) != tile.Dx()*tile.Dy() {
			return fmt.Errorf("render of tile %s: %w: malformed tile result", tile, mandel.ErrIOFailure)
		}
		iws.tileFinished(tileBuf)
	}
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := tileH
		if oy+th > h {
			th = h - oy
		}

		for ox := 0; ox < w; ox += tileW {
			tw := tileW
			if ox+tw > w {
				tw = w - ox
			}

			tile := image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			)
			tiles = append(tiles, tile)
		}
	}

	return tiles
}
