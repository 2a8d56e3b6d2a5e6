// mandel renders an anti-aliased view of the Mandelbrot set on the local
// machine and saves it as an image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	mandel "github.com/marshal20/MandelbrotSet"
	"github.com/marshal20/MandelbrotSet/imgio"
	"github.com/marshal20/MandelbrotSet/render"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	params    mandel.Params
	workers   int
	seed      uint64
	output    string
	thumbnail int
	verbose   bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func parseFlags(args []string) (config, error) {
	cfg := config{params: mandel.DefaultParams()}
	p := &cfg.params

	fs := flag.NewFlagSet("mandel", flag.ContinueOnError)
	region := fs.String("region", "", "named region to render ("+strings.Join(regionNames(), ", ")+"); overrides -cx, -cy and -span")
	fs.IntVar(&p.Width, "width", p.Width, "raster width in pixels")
	fs.IntVar(&p.Height, "height", p.Height, "raster height in pixels")
	fs.IntVar(&p.Samples, "samples", p.Samples, "jittered samples per pixel")
	iter := fs.Uint("iterations", uint(p.MaxIterations), "escape-time iteration cap")
	fs.Float64Var(&p.Bound, "bound", p.Bound, "escape radius")
	fs.Float64Var(&p.Center.R, "cx", p.Center.R, "viewport center, real part")
	fs.Float64Var(&p.Center.I, "cy", p.Center.I, "viewport center, imaginary part")
	fs.Float64Var(&p.Span, "span", p.Span, "plane height covered by the image")
	fs.IntVar(&cfg.workers, "workers", runtime.NumCPU(), "rows rendered in parallel")
	fs.Uint64Var(&cfg.seed, "seed", 0, "jitter seed, 0 picks one at random")
	fs.StringVar(&cfg.output, "o", "output/image.png", "output file (.png, .bmp or .tiff)")
	fs.IntVar(&cfg.thumbnail, "thumbnail", 0, "also save a copy scaled to this width")
	fs.BoolVar(&cfg.verbose, "v", false, "log render diagnostics")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	p.MaxIterations = uint32(*iter)
	if *region != "" {
		r, ok := mandel.Regions[strings.ToLower(*region)]
		if !ok {
			return cfg, fmt.Errorf("%w: unknown region %q", mandel.ErrInvalidConfiguration, *region)
		}
		*p = p.WithRegion(r)
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
	if cfg.verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Drawing the buffer...")
	start := time.Now()
	buf, err := render.Render(ctx, cfg.params, render.Options{
		Workers:  cfg.workers,
		Seed:     cfg.seed,
		Progress: newProgressBar(os.Stdout),
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	d := time.Since(start).Truncate(time.Second)
	fmt.Printf("\nFinished rendering in %dh%dm%ds\n", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)

	p := cfg.params
	message.NewPrinter(language.English).Printf("%d pixels, %d samples\n", p.Width*p.Height, p.Width*p.Height*p.Samples)

	if err := saveAll(cfg, buf); err != nil {
		return err
	}
	return nil
}

func saveAll(cfg config, buf *mandel.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(cfg.output), 0o755); err != nil {
		return fmt.Errorf("%w: %v", mandel.ErrIOFailure, err)
	}
	img := imgio.ToNRGBA(buf)
	if err := imgio.Save(cfg.output, img); err != nil {
		return fmt.Errorf("save %q: %w", cfg.output, err)
	}
	fmt.Printf("Saved buffer to %s\n", cfg.output)

	if cfg.thumbnail > 0 {
		thumb := thumbnailPath(cfg.output)
		if err := imgio.Save(thumb, imgio.Thumbnail(img, cfg.thumbnail)); err != nil {
			return fmt.Errorf("save %q: %w", thumb, err)
		}
		fmt.Printf("Saved thumbnail to %s\n", thumb)
	}
	return nil
}

func regionNames() []string {
	names := make([]string, 0, len(mandel.Regions))
	for n := range mandel.Regions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// thumbnailPath turns "out/image.png" into "out/image_thumb.png".
func thumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_thumb" + ext
}
