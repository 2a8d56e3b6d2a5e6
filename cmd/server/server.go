// server coordinates a distributed render: it splits the image into tiles,
// hands them to connected workers over tcp or websocket, assembles the
// results and saves the finished image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"

	mandel "github.com/marshal20/MandelbrotSet"
	"github.com/marshal20/MandelbrotSet/imgio"
)

// main is the entry point for the Mandelbrot server.
// Note: All rendering is performed by workers; the server only coordinates and distributes work.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type config struct {
	params   mandel.Params
	seed     uint64
	tcpAddr  string
	httpPort int
	output   string
}

func parseFlags(args []string) (config, error) {
	cfg := config{params: mandel.DefaultParams().WithRegion(mandel.SeahorseValley)}
	cfg.params.Width, cfg.params.Height = 1920, 1080
	p := &cfg.params

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	region := fs.String("region", "seahorsevalley", "named region to render")
	fs.IntVar(&p.Width, "width", p.Width, "raster width in pixels")
	fs.IntVar(&p.Height, "height", p.Height, "raster height in pixels")
	fs.IntVar(&p.Samples, "samples", p.Samples, "jittered samples per pixel")
	iter := fs.Uint("iterations", uint(p.MaxIterations), "escape-time iteration cap")
	fs.Float64Var(&p.Bound, "bound", p.Bound, "escape radius")
	fs.Uint64Var(&cfg.seed, "seed", 0, "jitter seed, 0 picks one at random")
	fs.StringVar(&cfg.tcpAddr, "tcp", ":8081", "tcp address workers connect to")
	fs.IntVar(&cfg.httpPort, "http", 8080, "http port for /ws, /status and /image.png")
	fs.StringVar(&cfg.output, "o", "mandel.png", "where to save the finished image")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	p.MaxIterations = uint32(*iter)
	r, ok := mandel.Regions[strings.ToLower(*region)]
	if !ok {
		return cfg, fmt.Errorf("%w: unknown region %q", mandel.ErrInvalidConfiguration, *region)
	}
	*p = p.WithRegion(r)
	for cfg.seed == 0 {
		cfg.seed = rand.Uint64()
	}
	return cfg, p.Validate()
}

func run() error {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	imgWorkScheduler := newImgWorkScheduler(cfg.params, cfg.seed)
	log.Printf("rendering %dx%d, %d samples, seed %d",
		cfg.params.Width, cfg.params.Height, cfg.params.Samples, cfg.seed)

	// TCP
	log.Printf("tcp listening on %s", cfg.tcpAddr)
	tcpListener, err := net.Listen("tcp", cfg.tcpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}
	defer tcpListener.Close()

	// WEBSOCKET
	websocketListener, httpServer := webServer(ctx, cfg.httpPort, imgWorkScheduler)
	defer websocketListener.Close()

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("httpServer: %v", err)
		}
	}()
	defer httpServer.Close()

	// Both listeners feed the same scheduler
	go serve(ctx, tcpListener, imgWorkScheduler)
	go serve(ctx, websocketListener, imgWorkScheduler)

	log.Printf("mb server waiting for tcp and websocket workers")
	buf, err := imgWorkScheduler.GetImage(ctx)
	if err != nil {
		return fmt.Errorf("waiting for image: %w", err)
	}

	if err := imgio.Save(cfg.output, imgio.ToNRGBA(buf)); err != nil {
		return fmt.Errorf("save %q: %w", cfg.output, err)
	}
	log.Printf("fully rendered file saved to %q, still serving /image.png until interrupted", cfg.output)

	<-ctx.Done()
	return nil
}

// serve accepts workers from l until it is closed and plugs each one into the scheduler.
func serve(ctx context.Context, l net.Listener, iws *imgWorkScheduler) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("accept on %s: %v", l.Addr(), err)
			}
			return
		}
		go func() {
			defer conn.Close()
			log.Printf("got connection from: %s", conn.RemoteAddr())

			// Each connected worker renders tiles for us until none are left
			renderer := mandel.NewRendererClient(conn)
			if err := iws.render(ctx, renderer); err != nil {
				log.Printf("err: render on worker %q: %v", conn.RemoteAddr(), err)
				return
			}
			log.Printf("worker %q: no tiles left", conn.RemoteAddr())
		}()
	}
}
