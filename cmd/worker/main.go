// worker lends this machine's CPU to a Mandelbrot server. It connects over
// tcp or websocket and renders the tiles the server hands out until the
// image is complete.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"

	"github.com/coder/websocket"
	mandel "github.com/marshal20/MandelbrotSet"
	"github.com/marshal20/MandelbrotSet/render"
)

// main is the entry point for the worker.
// It runs the worker logic and logs any fatal errors.
func main() {
	log.Printf("Starting worker...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run connects to the Mandelbrot server and renders tiles until the server hangs up.
func run() error {
	addr := flag.String("server", "tcp://localhost:8081", "server address, tcp://host:port or ws://host:port/ws")
	verbose := flag.Bool("v", false, "log render diagnostics")
	flag.Parse()

	if *verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: Connect to Mandelbrot server
	log.Printf("Connecting to Mandelbrot server on %s...", *addr)
	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()
	stopClose := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopClose()

	// Step 2: Serve tile jobs with our CPU
	renderer := render.RendererImpl{OnTileRender: func(tile image.Rectangle) { log.Printf("Rendering tile: %s", tile) }}
	service := mandel.NewRendererService(renderer)
	if err := service.Serve(ctx, conn); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}

	log.Printf("Server closed the connection, image is complete")
	return nil
}

// dial opens a net.Conn to the server. ws:// and wss:// addresses go through
// a websocket, anything else is treated as tcp.
func dial(ctx context.Context, addr string) (net.Conn, error) {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
		c, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(-1)
		return websocket.NetConn(context.WithoutCancel(ctx), c, websocket.MessageBinary), nil
	default:
		var d net.Dialer
		return d.DialContext(ctx, "tcp", strings.TrimPrefix(addr, "tcp://"))
	}
}
