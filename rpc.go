package mandel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"sync"
	"time"
)

// RendererClient is a Renderer backed by a remote RendererService.
// Calls are serialized; one tile is in flight per connection.
type RendererClient struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	m    sync.Mutex
}

var _ Renderer = (*RendererClient)(nil)

func NewRendererClient(conn net.Conn) *RendererClient {
	return &RendererClient{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}
}

func (c *RendererClient) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// RenderTile sends the job and waits for its result. Cancelling ctx
// interrupts the exchange and leaves the connection unusable.
func (c *RendererClient) RenderTile(ctx context.Context, p Params, tile image.Rectangle, seed uint64) (*Buffer, error) {
	c.m.Lock()
	defer c.m.Unlock()

	stop := context.AfterFunc(ctx, func() { c.conn.SetDeadline(time.Now()) })
	defer stop()

	if err := c.enc.Encode(TileJob{Params: p, Tile: tile, Seed: seed}); err != nil {
		return nil, fmt.Errorf("%w: send tile job: %v", ErrIOFailure, err)
	}
	var res TileResult
	if err := c.dec.Decode(&res); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read tile result: %v", ErrIOFailure, err)
	}
	if res.Err != "" {
		return nil, fmt.Errorf("remote: %s", res.Err)
	}
	if res.Tile != tile || res.Buffer == nil {
		return nil, fmt.Errorf("%w: got result for tile %s, want %s", ErrIOFailure, res.Tile, tile)
	}
	return res.Buffer, nil
}

func (c *RendererClient) Close() error {
	return c.conn.Close()
}

// RendererService answers TileJobs arriving on a connection using a local Renderer.
type RendererService struct {
	r Renderer
}

func NewRendererService(r Renderer) *RendererService {
	return &RendererService{r: r}
}

// Serve handles jobs from rw until the peer closes the connection, which
// is reported as a nil error. Render failures are sent back to the peer
// and do not stop the loop. Serve never closes rw; close it to interrupt
// a pending read.
func (s *RendererService) Serve(ctx context.Context, rw io.ReadWriter) error {
	enc := json.NewEncoder(rw)
	dec := json.NewDecoder(bufio.NewReader(rw))
	for {
		var job TileJob
		if err := dec.Decode(&job); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%w: read tile job: %v", ErrIOFailure, err)
		}

		res := TileResult{Tile: job.Tile}
		buf, err := s.r.RenderTile(ctx, job.Params, job.Tile, job.Seed)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Err = err.Error()
		} else {
			res.Buffer = buf
		}

		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("%w: send tile result: %v", ErrIOFailure, err)
		}
	}
}
