package render

import (
	"math/rand/v2"
	"sync"
)

// Jitter yields sub-pixel offsets in [-0.5, 0.5) for each sample.
// A Jitter is used by a single goroutine.
type Jitter interface {
	Offset() (dx, dy float64)
}

// JitterSource returns the Jitter for one raster row. Rows may be rendered
// concurrently, so each call must return an independent Jitter.
type JitterSource func(row int) Jitter

// ZeroJitter samples every pixel at its exact grid position.
type ZeroJitter struct{}

func (ZeroJitter) Offset() (float64, float64) { return 0, 0 }

// SequenceJitter replays a fixed list of offsets, cycling when exhausted.
// It is safe to share between rows; the order in which rows draw from it
// is then up to the scheduler.
type SequenceJitter struct {
	mu      sync.Mutex
	offsets [][2]float64
	next    int
}

func NewSequenceJitter(offsets ...[2]float64) *SequenceJitter {
	return &SequenceJitter{offsets: offsets}
}

func (s *SequenceJitter) Offset() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.offsets) == 0 {
		return 0, 0
	}
	o := s.offsets[s.next%len(s.offsets)]
	s.next++
	return o[0], o[1]
}

// Fixed returns a JitterSource handing the same Jitter to every row.
func Fixed(j Jitter) JitterSource {
	return func(int) Jitter { return j }
}

// pixelSeeker is implemented by jitter streams that restart at every
// pixel, so a tile reproduces the same samples as a full render.
type pixelSeeker interface {
	SeekPixel(x int)
}

type randJitter struct {
	seed uint64
	row  uint64
	pcg  *rand.PCG
	r    *rand.Rand
}

func (j *randJitter) Offset() (float64, float64) {
	return j.r.Float64() - 0.5, j.r.Float64() - 0.5
}

func (j *randJitter) SeekPixel(x int) {
	j.pcg.Seed(j.seed, j.row<<32|uint64(uint32(x)))
}

// Seeded returns a JitterSource whose streams are keyed by (seed, row, x).
// Output depends only on seed, never on how rows or tiles are distributed
// across goroutines or machines.
func Seeded(seed uint64) JitterSource {
	return func(row int) Jitter {
		pcg := rand.NewPCG(seed, uint64(row)<<32)
		return &randJitter{seed: seed, row: uint64(row), pcg: pcg, r: rand.New(pcg)}
	}
}
