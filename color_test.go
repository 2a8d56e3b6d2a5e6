package mandel

import "testing"

func TestPaletteAtWraps(t *testing.T) {
	p := DefaultPalette()
	for k := uint32(0); k < 64; k++ {
		if p.At(k) != p.At(k+PaletteSize) || p.At(k) != p[k%PaletteSize] {
			t.Fatalf("At(%d) differs from At(%d)", k, k+PaletteSize)
		}
	}
	if got := p.At(250); got != p[10] {
		t.Errorf("At(250) = %v, want entry 10 %v", got, p[10])
	}
}

func TestDefaultPaletteIsACopy(t *testing.T) {
	a := DefaultPalette()
	a[0] = Color{}
	if b := DefaultPalette(); b[0] == (Color{}) {
		t.Error("DefaultPalette shares storage between calls")
	}
}

func TestDefaultPaletteChannelsInRange(t *testing.T) {
	for i, c := range DefaultPalette() {
		for _, ch := range []float64{c.R, c.G, c.B, c.A} {
			if ch < 0 || ch > 1 {
				t.Errorf("entry %d has channel %v outside [0, 1]", i, ch)
			}
		}
	}
}

func TestColorAccumulate(t *testing.T) {
	var acc Color
	acc = acc.Add(Color{R: 1, G: 0.5, B: 0, A: 1})
	acc = acc.Add(Color{R: 0, G: 0.5, B: 0.25, A: 1})
	if want := (Color{R: 1, G: 1, B: 0.25, A: 2}); acc != want {
		t.Fatalf("sum = %v, want %v", acc, want)
	}
	if got, want := acc.Div(2), (Color{R: 0.5, G: 0.5, B: 0.125, A: 1}); got != want {
		t.Errorf("mean = %v, want %v", got, want)
	}
}
