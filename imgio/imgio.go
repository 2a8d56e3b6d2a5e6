// Package imgio converts rendered buffers to 8-bit images and writes them
// to disk. The output format is chosen from the file extension.
package imgio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	mandel "github.com/marshal20/MandelbrotSet"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Channel converts a [0, 1] channel to a byte by truncating c*255.
// Values outside [0, 1] are clamped first.
func Channel(c float64) uint8 {
	v := c * 255
	switch {
	case !(v > 0): // also catches NaN
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// ToNRGBA converts buf to an 8-bit image with the same bounds.
func ToNRGBA(buf *mandel.Buffer) *image.NRGBA {
	img := image.NewNRGBA(buf.Rect)
	for i, c := range buf.Pix {
		img.Pix[4*i+0] = Channel(c.R)
		img.Pix[4*i+1] = Channel(c.G)
		img.Pix[4*i+2] = Channel(c.B)
		img.Pix[4*i+3] = Channel(c.A)
	}
	return img
}

// Thumbnail scales img down to width pixels, keeping the aspect ratio.
// Images already narrower than width are returned unchanged.
func Thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || width >= b.Dx() {
		return img
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Encode writes img to w in the given format ("png", "bmp" or "tiff").
func Encode(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "png":
		err = png.Encode(w, img)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tif", "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: unsupported image format %q", mandel.ErrIOFailure, format)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", mandel.ErrIOFailure, format, err)
	}
	return nil
}

// FormatOf returns the image format implied by path's extension.
func FormatOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "png"
	}
	return ext
}

// Save encodes img to path. Any failure, including a failed close,
// wraps mandel.ErrIOFailure and leaves no complete-looking file behind.
func Save(path string, img image.Image) (err error) {
	format := FormatOf(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", mandel.ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", mandel.ErrIOFailure, path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, img, format); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write %s: %v", mandel.ErrIOFailure, path, err)
	}
	return nil
}
