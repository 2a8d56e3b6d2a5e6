package mandel

import (
	"context"
	"image"
)

type ImgProvider interface {
	GetImage(ctx context.Context) (*Buffer, error)
}

// Renderer renders the pixels of tile (global raster coordinates) of the
// image described by p. Jitter for the tile is derived from seed.
type Renderer interface {
	RenderTile(ctx context.Context, p Params, tile image.Rectangle, seed uint64) (*Buffer, error)
}

// TileJob is sent by the server to a worker.
type TileJob struct {
	Params Params          `json:"params"`
	Tile   image.Rectangle `json:"tile"`
	Seed   uint64          `json:"seed"`
}

// TileResult is a worker's reply to a TileJob. Err is set instead of
// Buffer when the worker could not render the tile.
type TileResult struct {
	Tile   image.Rectangle `json:"tile"`
	Buffer *Buffer         `json:"buffer,omitempty"`
	Err    string          `json:"err,omitempty"`
}
