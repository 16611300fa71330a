package l3metrics

import (
	"math"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// Sizes are the per-video body and head lengths in centimetres used as
// thresholds.
type Sizes struct {
	Body float64
	Head float64
}

// Details keeps the intermediate series behind a Result for reports and
// diagnostics.
type Details struct {
	Velocity  *Velocity
	Occupancy Occupancy
	Heatmap   Heatmap
	Bins      []TimeBin
}

// Compute derives the metrics record of one smoothed trajectory. Metrics
// are inserted in a fixed order: is_moving, is_center,
// is_moving_in_center, thigmotaxis, total_distance, then one D_ entry per
// time bin.
func Compute(tr *arena.Trajectory, sizes Sizes, cal arena.Calibration) (*Result, *Details, error) {
	v, err := ComputeVelocity(tr, cal.VelocityThreshold)
	if err != nil {
		return nil, nil, err
	}
	occ := ComputeOccupancy(v, cal.ArenaSideCM, sizes.Body, sizes.Head)
	heat := TransitionHeatmap(tr.X, tr.Y, cal.ArenaSideCM, cal.ThigmotaxisBinCount)
	bins := TimeBins(tr.T[tr.Len()-1], cal.TimebinMinutes, cal.MaxTimeMinutes)

	res := NewResult()
	res.Set(MetricIsMoving, Fraction(occ.Moving))
	res.Set(MetricIsCenter, Fraction(occ.Center))
	res.Set(MetricIsMovingInCenter, Fraction(occ.MovingInCenter))
	res.Set(MetricThigmotaxis, Thigmotaxis(heat))
	res.Set(MetricTotalDistance, v.TotalDistance(0, math.Inf(1)))
	for _, b := range bins {
		res.Set(b.Label(), v.TotalDistance(b.Start, b.End))
	}

	return res, &Details{Velocity: v, Occupancy: occ, Heatmap: heat, Bins: bins}, nil
}
