package render

import "sync"

// Progress receives completion percentages in [0, 100].
// Reports are non-decreasing and the last one is always 100.
type Progress interface {
	Report(percent int)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(percent int)

func (f ProgressFunc) Report(percent int) { f(percent) }

// rowCounter turns completed rows into percentages. With rows finishing in
// any order it reports floor((done-1)*100/total), which for a sequential
// render equals floor(y*100/height) after row y.
type rowCounter struct {
	mu    sync.Mutex
	done  int
	total int
	p     Progress
}

func newRowCounter(total int, p Progress) *rowCounter {
	return &rowCounter{total: total, p: p}
}

func (c *rowCounter) rowDone() {
	if c.p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++
	c.p.Report((c.done - 1) * 100 / c.total)
}

func (c *rowCounter) finish() {
	if c.p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Report(100)
}
