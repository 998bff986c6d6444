// Package systems holds the per-frame simulation: point field generation,
// shape assignment, pointer tracking and spring-damper integration.
package systems

import (
	"math"

	"github.com/pthm-cable/glyphfield/components"
)

// SampleGrid is the Poisson-disc background grid. Cell size is r/√2, so each
// cell holds at most one accepted point and a 5×5 neighborhood covers every
// point that could be closer than r.
type SampleGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    []int32 // point index per cell, -1 when empty
}

// NewSampleGrid creates a grid covering width×height for separation radius r.
func NewSampleGrid(width, height, r float32) *SampleGrid {
	cellSize := r / math.Sqrt2
	cols := int(math.Ceil(float64(width/cellSize))) + 1
	rows := int(math.Ceil(float64(height/cellSize))) + 1

	cells := make([]int32, cols*rows)
	for i := range cells {
		cells[i] = -1
	}

	return &SampleGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// cellCoords returns the column and row of a position.
func (g *SampleGrid) cellCoords(x, y float32) (int, int) {
	return int(x / g.cellSize), int(y / g.cellSize)
}

// Insert records point idx at (x, y).
func (g *SampleGrid) Insert(idx int32, x, y float32) {
	col, row := g.cellCoords(x, y)
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return
	}
	g.cells[row*g.cols+col] = idx
}

// Clear reports whether no stored point lies closer than r to (x, y).
func (g *SampleGrid) Clear(points []components.Point, x, y, r float32) bool {
	col, row := g.cellCoords(x, y)
	rSq := r * r

	for dr := -2; dr <= 2; dr++ {
		rr := row + dr
		if rr < 0 || rr >= g.rows {
			continue
		}
		for dc := -2; dc <= 2; dc++ {
			cc := col + dc
			if cc < 0 || cc >= g.cols {
				continue
			}
			idx := g.cells[rr*g.cols+cc]
			if idx < 0 {
				continue
			}
			p := points[idx]
			if distanceSq(x, y, p.X, p.Y) < rSq {
				return false
			}
		}
	}
	return true
}
