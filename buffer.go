package mandel

import "image"

// Buffer is a row-major block of pixel colors covering Rect in raster
// coordinates. A full render has Rect = (0,0)-(W,H), so pixel (x, y) lives
// at Pix[y*W+x]; a tile carries its own sub-rectangle.
type Buffer struct {
	Rect image.Rectangle
	Pix  []Color
}

// NewBuffer allocates a zero-filled buffer for r.
func NewBuffer(r image.Rectangle) *Buffer {
	return &Buffer{Rect: r, Pix: make([]Color, r.Dx()*r.Dy())}
}

func (b *Buffer) Bounds() image.Rectangle { return b.Rect }

// Offset returns the index of pixel (x, y) in Pix.
func (b *Buffer) Offset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Rect.Dx() + (x - b.Rect.Min.X)
}

func (b *Buffer) At(x, y int) Color {
	if !(image.Point{x, y}.In(b.Rect)) {
		return Color{}
	}
	return b.Pix[b.Offset(x, y)]
}

func (b *Buffer) Set(x, y int, c Color) {
	if !(image.Point{x, y}.In(b.Rect)) {
		return
	}
	b.Pix[b.Offset(x, y)] = c
}

// Draw copies the overlapping part of src into b.
func (b *Buffer) Draw(src *Buffer) {
	r := b.Rect.Intersect(src.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(b.Pix[b.Offset(r.Min.X, y):b.Offset(r.Max.X, y)], src.Pix[src.Offset(r.Min.X, y):src.Offset(r.Max.X, y)])
	}
}

// SubBuffer returns a copy of the pixels inside r.
func (b *Buffer) SubBuffer(r image.Rectangle) *Buffer {
	sub := NewBuffer(r.Intersect(b.Rect))
	sub.Draw(b)
	return sub
}
