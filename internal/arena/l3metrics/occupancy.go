package l3metrics

import (
	"math"
)

// DistanceToWall returns the distance of (x, y) to the nearest wall of a
// square arena with the given side, NaN when the position is missing.
func DistanceToWall(x, y, side float64) float64 {
	dx := math.Min(math.Abs(x), math.Abs(x-side))
	dy := math.Min(math.Abs(y), math.Abs(y-side))
	return math.Min(dx, dy)
}

// Occupancy holds the per-sample booleans behind the occupancy fractions,
// on the downsampled series.
type Occupancy struct {
	Moving         []bool
	Center         []bool
	MovingInCenter []bool
}

// ComputeOccupancy flags samples moving faster than half a head length and
// samples further than one body length from every wall. Missing samples
// are never moving and never in the center.
func ComputeOccupancy(v *Velocity, side, bodySize, headSize float64) Occupancy {
	n := v.Len()
	occ := Occupancy{
		Moving:         make([]bool, n),
		Center:         make([]bool, n),
		MovingInCenter: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		occ.Moving[i] = v.Speed[i] > headSize/2
		occ.Center[i] = DistanceToWall(v.X[i], v.Y[i], side) > bodySize
		occ.MovingInCenter[i] = occ.Moving[i] && occ.Center[i]
	}
	return occ
}

// Fraction returns the share of true values, NaN for an empty slice.
func Fraction(flags []bool) float64 {
	if len(flags) == 0 {
		return math.NaN()
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(flags))
}
