// Package plot renders a sweep series as a fixed-bounds ASCII chart.
//
// The vertical axis is always [0, 1]: visibility is a mean of bits and
// cannot leave that range, and fixing the bounds keeps charts from
// different sweeps visually comparable.
package plot

import (
	"fmt"
	"io"
	"strings"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

// DefaultHeight is the number of chart rows between the 0 and 1
// gridlines.
const DefaultHeight = 16

// Options control chart geometry.
type Options struct {
	// Height is the number of plot rows. Zero means DefaultHeight.
	Height int

	// Marker is the glyph drawn per point. Zero means '*'.
	Marker byte
}

// Render writes an ASCII chart of the series to w. One column per point,
// in series order; the y axis is fixed to [0, 1].
func Render(w io.Writer, s *sweep.Series, opts Options) error {
	if len(s.Points) == 0 {
		return fmt.Errorf("plot: empty series")
	}
	height := opts.Height
	if height <= 0 {
		height = DefaultHeight
	}
	marker := opts.Marker
	if marker == 0 {
		marker = '*'
	}

	width := len(s.Points)

	// rows[0] is the top (visibility 1); rows[height-1] the bottom.
	rows := make([][]byte, height)
	for i := range rows {
		rows[i] = []byte(strings.Repeat(" ", width))
	}
	for col, p := range s.Points {
		v := p.Visibility
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		row := height - 1 - int(v*float64(height-1)+0.5)
		rows[row][col] = marker
	}

	var b strings.Builder
	fmt.Fprintf(&b, "visibility (%s, %d shots)\n", s.Target, s.Points[0].Shots)
	for i, row := range rows {
		b.WriteString(axisLabel(i, height))
		b.WriteString(" |")
		b.Write(row)
		b.WriteByte('\n')
	}
	b.WriteString("     +")
	b.WriteString(strings.Repeat("-", width))
	b.WriteByte('\n')

	lo := s.Points[0].Value
	hi := s.Points[len(s.Points)-1].Value
	fmt.Fprintf(&b, "      %s = %.4g .. %.4g\n", s.Register, lo, hi)

	_, err := io.WriteString(w, b.String())
	return err
}

// axisLabel returns the 4-character y-axis label for a row: labeled at
// the top, midpoint, and bottom gridlines, blank elsewhere.
func axisLabel(row, height int) string {
	switch row {
	case 0:
		return "1.00"
	case (height - 1) / 2:
		return "0.50"
	case height - 1:
		return "0.00"
	default:
		return "    "
	}
}
