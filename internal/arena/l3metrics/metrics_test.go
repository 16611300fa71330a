package l3metrics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// linearTrajectory moves along x by stepCM every second at fps frames per
// second, holding y fixed.
func linearTrajectory(seconds, fps int, stepCM, y float64) *arena.Trajectory {
	n := seconds * fps
	tr := &arena.Trajectory{
		X: make([]float64, n),
		Y: make([]float64, n),
		T: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		tr.T[i] = float64(i) / float64(fps)
		tr.X[i] = 10 + stepCM*tr.T[i]
		tr.Y[i] = y
	}
	return tr
}

func TestComputeVelocity(t *testing.T) {
	t.Parallel()

	t.Run("sub-threshold speed clamps to zero", func(t *testing.T) {
		t.Parallel()
		v, err := ComputeVelocity(linearTrajectory(5, 1, 0.4, 40), 1.0)
		require.NoError(t, err)
		for _, s := range v.Speed {
			assert.Equal(t, 0.0, s)
		}
	})

	t.Run("speed above threshold is kept", func(t *testing.T) {
		t.Parallel()
		v, err := ComputeVelocity(linearTrajectory(5, 1, 1.4, 40), 1.0)
		require.NoError(t, err)
		for _, s := range v.Speed {
			assert.InDelta(t, 1.4, s, 1e-12)
		}
	})

	t.Run("downsamples to one sample per second", func(t *testing.T) {
		t.Parallel()
		v, err := ComputeVelocity(linearTrajectory(3, 30, 2, 40), 1.0)
		require.NoError(t, err)
		assert.Equal(t, 30, v.Step)
		require.Equal(t, 3, v.Len())
		assert.InDelta(t, 1.0, v.T[1], 1e-12)
		for i := range v.Speed {
			assert.InDelta(t, 1.0, v.Dt[i], 1e-12)
			assert.InDelta(t, 2.0, v.Speed[i], 1e-9)
		}
	})

	t.Run("last delta repeats the previous one", func(t *testing.T) {
		t.Parallel()
		tr := &arena.Trajectory{
			X: []float64{0, 2, 6},
			Y: []float64{0, 0, 0},
			T: []float64{0, 1, 2},
		}
		v, err := ComputeVelocity(tr, 1.0)
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 4, 4}, v.Speed)
	})

	t.Run("missing position yields NaN speed", func(t *testing.T) {
		t.Parallel()
		tr := linearTrajectory(4, 1, 2, 40)
		tr.X[2] = math.NaN()
		v, err := ComputeVelocity(tr, 1.0)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v.Speed[1]))
		assert.True(t, math.IsNaN(v.Speed[2]))
		assert.Equal(t, 2.0, v.Speed[0])
	})

	t.Run("single downsampled sample", func(t *testing.T) {
		t.Parallel()
		v, err := ComputeVelocity(linearTrajectory(1, 30, 2, 40), 1.0)
		require.NoError(t, err)
		require.Equal(t, 1, v.Len())
		assert.Equal(t, 0.0, v.Speed[0])
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		_, err := ComputeVelocity(&arena.Trajectory{X: []float64{1}, Y: []float64{1}, T: []float64{0}}, 1.0)
		assert.ErrorIs(t, err, arena.ErrInput)
	})
}

func TestTotalDistance(t *testing.T) {
	t.Parallel()

	v, err := ComputeVelocity(linearTrajectory(10, 1, 2, 40), 1.0)
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end float64
		want       float64
	}{
		{"whole session excludes last timestamp", 0, math.Inf(1), 18},
		{"half-open window", 2, 5, 6},
		{"single sample", 3, 3.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, v.TotalDistance(tt.start, tt.end), 1e-9)
		})
	}

	t.Run("empty window is NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(v.TotalDistance(100, 200)))
	})

	t.Run("gaps are extrapolated", func(t *testing.T) {
		tr := linearTrajectory(10, 1, 2, 40)
		tr.X[4] = math.NaN()
		gv, err := ComputeVelocity(tr, 1.0)
		require.NoError(t, err)
		// Samples 3 and 4 are missing: 14 cm over 7 of 9 samples.
		assert.InDelta(t, 18, gv.TotalDistance(0, math.Inf(1)), 1e-9)
	})

	t.Run("all missing is NaN", func(t *testing.T) {
		tr := linearTrajectory(4, 1, 2, 40)
		for i := range tr.X {
			tr.X[i] = math.NaN()
		}
		gv, err := ComputeVelocity(tr, 1.0)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(gv.TotalDistance(0, math.Inf(1))))
	})
}

func TestDistanceToWall(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 40.0, DistanceToWall(40, 40, 80))
	assert.Equal(t, 5.0, DistanceToWall(75, 40, 80))
	assert.Equal(t, 2.0, DistanceToWall(30, 2, 80))
	assert.Equal(t, 8.0, DistanceToWall(-8, 40, 80))
	assert.True(t, math.IsNaN(DistanceToWall(math.NaN(), 40, 80)))
}

func TestComputeOccupancy(t *testing.T) {
	t.Parallel()

	v := &Velocity{
		X:     []float64{40, 40, 2, 2, math.NaN()},
		Y:     []float64{40, 40, 40, 40, math.NaN()},
		T:     []float64{0, 1, 2, 3, 4},
		Dt:    []float64{1, 1, 1, 1, 1},
		Speed: []float64{5, 0, 5, 0, math.NaN()},
	}
	occ := ComputeOccupancy(v, 80, 6, 2)

	assert.Equal(t, []bool{true, false, true, false, false}, occ.Moving)
	assert.Equal(t, []bool{true, true, false, false, false}, occ.Center)
	assert.Equal(t, []bool{true, false, false, false, false}, occ.MovingInCenter)
	assert.InDelta(t, 0.4, Fraction(occ.Moving), 1e-12)
	assert.InDelta(t, 0.4, Fraction(occ.Center), 1e-12)
	assert.InDelta(t, 0.2, Fraction(occ.MovingInCenter), 1e-12)
	assert.True(t, math.IsNaN(Fraction(nil)))
}

// cellCentre returns the centre of a 16 cm cell in an 80 cm arena.
func cellCentre(c int) float64 { return 8 + 16*float64(c) }

func path(cells ...[2]int) (xs, ys []float64) {
	for _, c := range cells {
		xs = append(xs, cellCentre(c[0]))
		ys = append(ys, cellCentre(c[1]))
	}
	return xs, ys
}

func TestThigmotaxis(t *testing.T) {
	t.Parallel()

	t.Run("outer ring only is exactly one", func(t *testing.T) {
		t.Parallel()
		xs, ys := path(
			[2]int{0, 0}, [2]int{1, 0}, [2]int{2, 0}, [2]int{3, 0}, [2]int{4, 0},
			[2]int{4, 1}, [2]int{4, 2}, [2]int{4, 3}, [2]int{4, 4},
			[2]int{3, 4}, [2]int{2, 4}, [2]int{1, 4}, [2]int{0, 4},
			[2]int{0, 3}, [2]int{0, 2}, [2]int{0, 1}, [2]int{0, 0},
		)
		h := TransitionHeatmap(xs, ys, 80, 25)
		assert.Equal(t, 5, h.Side)
		assert.Equal(t, 16, h.Total())
		assert.Equal(t, 0, h.Interior())
		assert.Equal(t, 1.0, Thigmotaxis(h))
	})

	t.Run("interior only is zero", func(t *testing.T) {
		t.Parallel()
		xs, ys := path([2]int{2, 2}, [2]int{2, 3}, [2]int{3, 3}, [2]int{2, 2})
		h := TransitionHeatmap(xs, ys, 80, 25)
		assert.Equal(t, 3, h.Total())
		assert.Equal(t, 0.0, Thigmotaxis(h))
	})

	t.Run("staying in one cell records nothing", func(t *testing.T) {
		t.Parallel()
		h := TransitionHeatmap([]float64{40, 41, 42}, []float64{40, 40, 40}, 80, 25)
		assert.Equal(t, 0, h.Total())
		assert.True(t, math.IsNaN(Thigmotaxis(h)))
	})

	t.Run("jump is dropped and the chain resumes at its destination", func(t *testing.T) {
		t.Parallel()
		xs, ys := path([2]int{0, 0}, [2]int{3, 0}, [2]int{3, 1}, [2]int{3, 2})
		h := TransitionHeatmap(xs, ys, 80, 25)
		assert.Equal(t, 2, h.Total())
		assert.Equal(t, 0, h.At(3, 0))
		assert.Equal(t, 1, h.At(3, 1))
		assert.Equal(t, 1, h.At(3, 2))
	})

	t.Run("jump back to the wall then along it", func(t *testing.T) {
		t.Parallel()
		xs, ys := path([2]int{2, 2}, [2]int{2, 1}, [2]int{4, 1}, [2]int{4, 2}, [2]int{4, 3})
		h := TransitionHeatmap(xs, ys, 80, 25)
		assert.Equal(t, 3, h.Total())
		assert.Equal(t, 1, h.At(2, 1))
		assert.Equal(t, 1, h.At(4, 2))
		assert.Equal(t, 1, h.At(4, 3))
		assert.Equal(t, 1, h.Interior())
		assert.InDelta(t, 2.0/3.0, Thigmotaxis(h), 1e-12)
	})

	t.Run("missing samples are skipped", func(t *testing.T) {
		t.Parallel()
		xs, ys := path([2]int{1, 1}, [2]int{1, 1}, [2]int{2, 1})
		xs[1] = math.NaN()
		h := TransitionHeatmap(xs, ys, 80, 25)
		assert.Equal(t, 1, h.At(2, 1))
	})

	t.Run("positions outside the arena clip to edge cells", func(t *testing.T) {
		t.Parallel()
		h := TransitionHeatmap([]float64{-8, 8, 100}, []float64{40, 40, 40}, 80, 25)
		assert.Equal(t, 0, h.Total())
	})

	t.Run("bounded on a random walk", func(t *testing.T) {
		t.Parallel()
		xs := []float64{1, 17, 33, 33, 49, 65, 49, 33, 17, 1}
		ys := []float64{1, 1, 17, 33, 33, 49, 65, 49, 33, 17}
		th := Thigmotaxis(TransitionHeatmap(xs, ys, 80, 25))
		assert.GreaterOrEqual(t, th, 0.0)
		assert.LessOrEqual(t, th, 1.0)
	})
}

func TestGridSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, GridSide(25))
	assert.Equal(t, 3, GridSide(10))
	assert.Equal(t, 1, GridSide(1))
	assert.Equal(t, 1, GridSide(0))
}

func TestTimeBins(t *testing.T) {
	t.Parallel()

	t.Run("tiles the session without gaps", func(t *testing.T) {
		t.Parallel()
		bins := TimeBins(1000, 5, math.Inf(1))
		require.Len(t, bins, 4)
		for i, b := range bins {
			assert.Equal(t, float64(i)*300, b.Start)
			assert.Equal(t, 300.0, b.End-b.Start)
			if i > 0 {
				assert.Equal(t, bins[i-1].End, b.Start)
			}
		}
		assert.Equal(t, "D_0_5", bins[0].Label())
		assert.Equal(t, "D_15_20", bins[3].Label())
	})

	t.Run("stops after max time", func(t *testing.T) {
		t.Parallel()
		bins := TimeBins(1000, 5, 10)
		require.Len(t, bins, 3)
		assert.Equal(t, "D_10_15", bins[2].Label())
	})

	t.Run("short session has one bin", func(t *testing.T) {
		t.Parallel()
		bins := TimeBins(899.0/30, 5, math.Inf(1))
		require.Len(t, bins, 1)
		assert.Equal(t, "D_0_5", bins[0].Label())
	})

	t.Run("fractional widths", func(t *testing.T) {
		t.Parallel()
		labels := []string{}
		for _, b := range TimeBins(20, 0.1, math.Inf(1)) {
			labels = append(labels, b.Label())
		}
		assert.Equal(t, []string{"D_0_0.1", "D_0.1_0.2", "D_0.2_0.3", "D_0.3_0.4"}, labels)

		bins := TimeBins(200, 2.5, math.Inf(1))
		require.Len(t, bins, 2)
		assert.Equal(t, "D_2.5_5", bins[1].Label())
	})
}

func TestCompute(t *testing.T) {
	t.Parallel()

	cal := arena.DefaultCalibration()
	cal.TimebinMinutes = 0.5
	tr := linearTrajectory(60, 10, 1.2, 40)
	sizes := Sizes{Body: 5, Head: 2}

	res, details, err := Compute(tr, sizes, cal)
	require.NoError(t, err)

	assert.Equal(t, []string{
		MetricIsMoving, MetricIsCenter, MetricIsMovingInCenter,
		MetricThigmotaxis, MetricTotalDistance, "D_0_0.5", "D_0.5_1",
	}, res.Names())
	assert.Len(t, details.Bins, 2)
	assert.Equal(t, 10, details.Velocity.Step)

	dist, _ := res.Get(MetricTotalDistance)
	assert.InDelta(t, 1.2*59, dist, 1e-6)
	moving, _ := res.Get(MetricIsMoving)
	assert.Equal(t, 1.0, moving)
	// The last bin is not cut at the final timestamp.
	first, _ := res.Get("D_0_0.5")
	second, _ := res.Get("D_0.5_1")
	assert.InDelta(t, 36, first, 1e-6)
	assert.InDelta(t, 36, second, 1e-6)
	thig, _ := res.Get(MetricThigmotaxis)
	assert.InDelta(t, 0.25, thig, 1e-12)

	t.Run("idempotent", func(t *testing.T) {
		again, _, err := Compute(tr, sizes, cal)
		require.NoError(t, err)
		if diff := cmp.Diff(res.Map(), again.Map(), cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("metrics differ (-first +second):\n%s", diff)
		}
	})
}

func TestResultMarshalJSON(t *testing.T) {
	t.Parallel()

	r := NewResult()
	r.Set(MetricIsMoving, 0.25)
	r.Set(MetricThigmotaxis, math.NaN())
	r.Set(MetricIsMoving, 0.5)

	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"is_moving":0.5,"thigmotaxis":null}`, string(b))
	assert.Equal(t, 2, r.Len())
}
