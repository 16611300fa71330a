package l3metrics

import (
	"math"
)

// Heatmap counts cell-to-cell transitions on a Side x Side grid. Counts is
// row-major with rows along y.
type Heatmap struct {
	Side   int
	Counts []int
}

// NewHeatmap returns an empty grid of side cells per axis.
func NewHeatmap(side int) Heatmap {
	return Heatmap{Side: side, Counts: make([]int, side*side)}
}

// At returns the count of cell (col, row).
func (h Heatmap) At(col, row int) int { return h.Counts[row*h.Side+col] }

func (h Heatmap) add(col, row int) { h.Counts[row*h.Side+col]++ }

// Total returns the number of recorded transitions.
func (h Heatmap) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// Interior returns the transitions into cells that do not touch a wall.
func (h Heatmap) Interior() int {
	n := 0
	for row := 1; row < h.Side-1; row++ {
		for col := 1; col < h.Side-1; col++ {
			n += h.At(col, row)
		}
	}
	return n
}

// GridSide returns round(sqrt(binCount)), at least 1.
func GridSide(binCount int) int {
	side := int(math.Round(math.Sqrt(float64(binCount))))
	if side < 1 {
		side = 1
	}
	return side
}

// TransitionHeatmap maps the trajectory onto the grid and records every
// cell change at its destination cell. Missing samples are skipped. A jump
// of more than one cell on either axis is a tracking discontinuity: that
// transition is not recorded and the chain resumes from the jump's
// destination cell.
func TransitionHeatmap(xs, ys []float64, arenaSide float64, binCount int) Heatmap {
	side := GridSide(binCount)
	h := NewHeatmap(side)
	cellSize := arenaSide / float64(side)

	var prevCol, prevRow int
	chained := false
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		col := gridCell(xs[i], cellSize, side)
		row := gridCell(ys[i], cellSize, side)
		if !chained {
			prevCol, prevRow, chained = col, row, true
			continue
		}
		jump := absInt(col-prevCol) > 1 || absInt(row-prevRow) > 1
		if !jump && (col != prevCol || row != prevRow) {
			h.add(col, row)
		}
		prevCol, prevRow = col, row
	}
	return h
}

// Thigmotaxis returns 1 - interior/total transitions. It is NaN when no
// transition was recorded.
func Thigmotaxis(h Heatmap) float64 {
	total := h.Total()
	if total == 0 {
		return math.NaN()
	}
	return 1 - float64(h.Interior())/float64(total)
}

func gridCell(v, cellSize float64, side int) int {
	c := int(math.Floor(v / cellSize))
	if c < 0 {
		return 0
	}
	if c >= side {
		return side - 1
	}
	return c
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
