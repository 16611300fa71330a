package l3metrics

import (
	"fmt"
	"math"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/arena/l2trajectory"
)

// Velocity is the speed series of a trajectory downsampled to roughly one
// sample per second. All slices share one index.
type Velocity struct {
	// Step is the number of source frames between downsampled samples.
	Step  int
	X     []float64
	Y     []float64
	T     []float64
	Dt    []float64
	Speed []float64 // cm/s, NaN where the position is missing
}

// Len returns the number of downsampled samples.
func (v *Velocity) Len() int { return len(v.T) }

// ComputeVelocity downsamples the trajectory by its detected frame rate and
// differentiates it forward. The final sample repeats the previous delta.
// Speeds below threshold are jitter and become exactly 0.
func ComputeVelocity(tr *arena.Trajectory, threshold float64) (*Velocity, error) {
	if len(tr.X) != tr.Len() || len(tr.Y) != tr.Len() {
		return nil, fmt.Errorf("%w: trajectory axes differ in length", arena.ErrInput)
	}
	step, err := l2trajectory.DetectedFPS(tr.T)
	if err != nil {
		return nil, err
	}

	v := &Velocity{Step: step}
	for i := 0; i < tr.Len(); i += step {
		v.X = append(v.X, tr.X[i])
		v.Y = append(v.Y, tr.Y[i])
		v.T = append(v.T, tr.T[i])
	}

	n := len(v.T)
	dx := make([]float64, n)
	dy := make([]float64, n)
	v.Dt = make([]float64, n)
	for i := 0; i+1 < n; i++ {
		dx[i] = v.X[i+1] - v.X[i]
		dy[i] = v.Y[i+1] - v.Y[i]
		v.Dt[i] = v.T[i+1] - v.T[i]
	}
	if n >= 2 {
		dx[n-1], dy[n-1], v.Dt[n-1] = dx[n-2], dy[n-2], v.Dt[n-2]
	} else {
		// Single downsampled sample: no displacement over one step.
		v.Dt[0] = float64(step) * (tr.T[1] - tr.T[0])
	}

	v.Speed = make([]float64, n)
	for i := range v.Speed {
		if math.IsNaN(v.X[i]) || math.IsNaN(v.Y[i]) {
			v.Speed[i] = math.NaN()
			continue
		}
		s := math.Hypot(dx[i], dy[i]) / v.Dt[i]
		if s < threshold {
			s = 0
		}
		v.Speed[i] = s
	}
	return v, nil
}

// TotalDistance integrates speed over samples with timestamps in
// [tStart, tEnd). An infinite tEnd means the last timestamp. The sum is
// scaled by 1/(1 - missing fraction) so gaps are extrapolated rather than
// counted as rest. It is NaN when the range holds no valid sample.
func (v *Velocity) TotalDistance(tStart, tEnd float64) float64 {
	if v.Len() == 0 {
		return math.NaN()
	}
	if math.IsInf(tEnd, 1) {
		tEnd = v.T[v.Len()-1]
	}

	var sum float64
	var total, missing int
	for i, t := range v.T {
		if t < tStart || t >= tEnd {
			continue
		}
		total++
		if math.IsNaN(v.Speed[i]) {
			missing++
			continue
		}
		sum += v.Speed[i] * v.Dt[i]
	}
	if total == 0 || missing == total {
		return math.NaN()
	}
	return sum / (1 - float64(missing)/float64(total))
}
