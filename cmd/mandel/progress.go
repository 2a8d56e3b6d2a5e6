package main

import (
	"fmt"
	"io"
	"strings"
)

const barCells = 50

// progressBar renders "[=====     ] 42%" on a single console line.
type progressBar struct {
	w    io.Writer
	last int
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w, last: -1}
}

func (b *progressBar) Report(percent int) {
	if percent == b.last {
		return
	}
	b.last = percent
	fmt.Fprintf(b.w, "\r%s %d%%  ", bar(percent), percent)
}

func bar(percent int) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < barCells; i++ {
		if i <= percent/2 {
			sb.WriteByte('=')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
