package l2trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/openfield.report/internal/arena"
)

func frameAt(px, py, conf float64) arena.PoseFrame {
	var f arena.PoseFrame
	for k := range f {
		f[k] = arena.Observation{X: px, Y: py, Confidence: conf}
	}
	return f
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func TestTimestamps(t *testing.T) {
	t.Parallel()

	ts, err := Timestamps(arena.VideoMetadata{FPS: 30, FrameCount: 900})
	require.NoError(t, err)
	require.Len(t, ts, 900)
	assert.Equal(t, 0.0, ts[0])
	assert.InDelta(t, 29.9667, ts[899], 1e-4)
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i], ts[i-1])
		assert.InDelta(t, 1.0/30, ts[i]-ts[i-1], 1e-12)
	}

	_, err = Timestamps(arena.VideoMetadata{FPS: 0, FrameCount: 10})
	assert.ErrorIs(t, err, arena.ErrInput)
}

func TestDetectedFPS(t *testing.T) {
	t.Parallel()

	ts, err := Timestamps(arena.VideoMetadata{FPS: 29.97, FrameCount: 100})
	require.NoError(t, err)
	fps, err := DetectedFPS(ts)
	require.NoError(t, err)
	assert.Equal(t, 30, fps)

	fps, err = DetectedFPS([]float64{0, 4, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, fps)

	_, err = DetectedFPS([]float64{0})
	assert.ErrorIs(t, err, arena.ErrInput)
	_, err = DetectedFPS([]float64{1, 1, 1})
	assert.ErrorIs(t, err, arena.ErrInput)
}

func TestFuseKeypoints(t *testing.T) {
	t.Parallel()

	cal := arena.DefaultCalibration()

	t.Run("origin pixel maps to negative corner offset", func(t *testing.T) {
		t.Parallel()
		xs, ys := FuseKeypoints(&arena.PoseTable{Frames: []arena.PoseFrame{frameAt(0, 0, 1)}}, cal)
		assert.Equal(t, -8.0, xs[0])
		assert.Equal(t, -8.0, ys[0])
	})

	t.Run("confidence weighted mean", func(t *testing.T) {
		t.Parallel()
		f := arena.PoseFrame{
			{X: 100, Y: 100, Confidence: 0.9},
			{X: 600, Y: 600, Confidence: 0.3},
			{X: 1100, Y: 1100, Confidence: 0},
		}
		xs, ys := FuseKeypoints(&arena.PoseTable{Frames: []arena.PoseFrame{f}}, cal)
		assert.InDelta(t, 10.0, xs[0], 1e-9)
		assert.InDelta(t, 10.0, ys[0], 1e-9)
	})

	t.Run("gate drops low confidence frames whatever the coordinates", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: []arena.PoseFrame{
			frameAt(500, 500, 0.59),
			frameAt(500, 500, 0.6),
			frameAt(0, 0, 0.1),
		}}
		xs, ys := FuseKeypoints(table, cal)
		assert.True(t, math.IsNaN(xs[0]) && math.IsNaN(ys[0]))
		assert.InDelta(t, 32.0, xs[1], 1e-9)
		assert.True(t, math.IsNaN(xs[2]) && math.IsNaN(ys[2]))
	})

	t.Run("keypoint without coordinates carries no weight", func(t *testing.T) {
		t.Parallel()
		f := frameAt(600, 600, 0.9)
		f[arena.Nose] = arena.Observation{X: math.NaN(), Y: math.NaN(), Confidence: 0.99}
		xs, _ := FuseKeypoints(&arena.PoseTable{Frames: []arena.PoseFrame{f}}, cal)
		assert.InDelta(t, 40.0, xs[0], 1e-9)
	})
}

func TestClusterSizing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30, ClusterSize(1.0, 30))
	assert.Equal(t, 15, ClusterSize(0.5, 30))
	assert.Equal(t, 0, ClusterSize(0, 30))
	assert.Equal(t, 1, ClusterPadding(5, 0.2))
	assert.Equal(t, 6, ClusterPadding(30, 0.2))
	assert.Equal(t, 1, ClusterPadding(0, 0.2))
}

func TestValidRuns(t *testing.T) {
	t.Parallel()

	n := math.NaN()
	runs := ValidRuns([]float64{1, 2, n, n, 3, n, 4, 5, 6})
	assert.Equal(t, []Run{{0, 2}, {4, 5}, {6, 9}}, runs)
	assert.Empty(t, ValidRuns([]float64{n, n}))
}

func TestRemoveSmallClusters(t *testing.T) {
	t.Parallel()

	t.Run("isolated sample between long gaps", func(t *testing.T) {
		t.Parallel()
		vals := make([]float64, 41)
		for i := range vals {
			vals[i] = float64(i)
		}
		for i := 10; i < 31; i++ {
			if i != 20 {
				vals[i] = math.NaN()
			}
		}
		out := RemoveSmallClusters(vals, 5, ClusterPadding(5, 0.2))
		assert.True(t, math.IsNaN(out[20]))
		assert.Equal(t, 9.0, out[9])
		assert.Equal(t, 31.0, out[31])
		assert.Equal(t, 20.0, vals[20], "input must not change")
	})

	t.Run("padding window boundaries", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name    string
			n       int
			gaps    []int
			padding int
			blanked [2]int // [lo, hi)
		}{
			// Short run [7,10); padding 1 reaches only the gap samples.
			{"padding one", 20, []int{6, 10}, ClusterPadding(5, 0.2), [2]int{6, 11}},
			// Short run [13,16); padding 2 eats one valid sample per side.
			{"padding two", 30, []int{12, 16}, 2, [2]int{11, 18}},
			// Short run [17,20) at the end of the series.
			{"run at series end", 20, []int{16}, 2, [2]int{15, 20}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				vals := make([]float64, tt.n)
				for i := range vals {
					vals[i] = float64(i)
				}
				for _, g := range tt.gaps {
					vals[g] = math.NaN()
				}
				out := RemoveSmallClusters(vals, 5, tt.padding)
				for i := range out {
					if i >= tt.blanked[0] && i < tt.blanked[1] {
						assert.True(t, math.IsNaN(out[i]), "index %d should be blanked", i)
						continue
					}
					assert.Equal(t, float64(i), out[i], "index %d should survive", i)
				}
			})
		}
	})

	t.Run("padding cuts a neighbour which is then removed", func(t *testing.T) {
		t.Parallel()
		vals := make([]float64, 21)
		for i := range vals {
			vals[i] = 1
		}
		vals[6] = math.NaN()
		vals[8] = math.NaN()
		out := RemoveSmallClusters(vals, 5, 2)
		for i := 0; i < 10; i++ {
			assert.True(t, math.IsNaN(out[i]), "index %d", i)
		}
		for _, r := range ValidRuns(out) {
			assert.Greater(t, r.Len(), 5)
		}
	})

	t.Run("disabled leaves series unchanged", func(t *testing.T) {
		t.Parallel()
		vals := []float64{1, math.NaN(), 2, math.NaN(), 3}
		out := RemoveSmallClusters(vals, 0, 1)
		assert.Equal(t, 1.0, out[0])
		assert.Equal(t, 2.0, out[2])
		assert.Equal(t, 3.0, out[4])
	})

	t.Run("every surviving run is longer than the cluster size", func(t *testing.T) {
		t.Parallel()
		n := math.NaN()
		vals := []float64{1, 1, 1, n, 1, 1, 1, 1, 1, 1, 1, n, 1, n, 1, 1, 1, 1, 1, 1, 1, 1, 1, n, 1, 1}
		out := RemoveSmallClusters(vals, 3, 1)
		for _, r := range ValidRuns(out) {
			assert.Greater(t, r.Len(), 3)
		}
	})
}

func TestGaussianKernel(t *testing.T) {
	t.Parallel()

	k := GaussianKernel(2)
	require.Len(t, k, 17)
	var sum float64
	for i, w := range k {
		sum += w
		assert.InDelta(t, w, k[len(k)-1-i], 1e-15)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Greater(t, k[8], k[7])
}

func TestSmoothNaN(t *testing.T) {
	t.Parallel()

	t.Run("constant stays constant across gaps", func(t *testing.T) {
		t.Parallel()
		vals := append(append([]float64{3, 3, 3, 3, 3}, nanSeries(30)...), 3, 3, 3, 3, 3)
		out := SmoothNaN(vals, 2)
		require.Len(t, out, len(vals))
		for i, v := range out {
			nearest := math.Min(math.Abs(float64(i-4)), math.Abs(float64(i-35)))
			if i < 5 || i >= 35 {
				nearest = 0
			}
			if nearest > 8 {
				assert.True(t, math.IsNaN(v), "index %d", i)
				continue
			}
			assert.InDelta(t, 3.0, v, 1e-12, "index %d", i)
		}
	})

	t.Run("smooths a step", func(t *testing.T) {
		t.Parallel()
		vals := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
		out := SmoothNaN(vals, 2)
		assert.Greater(t, out[9], 0.0)
		assert.Less(t, out[10], 10.0)
		assert.InDelta(t, 10.0, out[9]+out[10], 1e-9)
	})

	t.Run("all missing stays missing", func(t *testing.T) {
		t.Parallel()
		for _, v := range SmoothNaN(nanSeries(10), 2) {
			assert.True(t, math.IsNaN(v))
		}
	})
}

func TestPointLineDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 3.0, PointLineDistance(0, 0, 5, 3, 10, 0), 1e-12)
	assert.InDelta(t, 0.0, PointLineDistance(0, 0, 5, 5, 10, 10), 1e-12)
	assert.True(t, math.IsNaN(PointLineDistance(1, 1, 5, 5, 1, 1)))
}

func straightFrame(conf float64) arena.PoseFrame {
	return arena.PoseFrame{
		{X: 200, Y: 500, Confidence: conf},
		{X: 300, Y: 500, Confidence: conf},
		{X: 600, Y: 500, Confidence: conf},
	}
}

func TestEstimateBodySize(t *testing.T) {
	t.Parallel()

	cal := arena.DefaultCalibration()

	t.Run("median over straight confident frames", func(t *testing.T) {
		t.Parallel()
		curled := straightFrame(0.99)
		curled[arena.Neck].Y = 700
		longer := straightFrame(0.95)
		longer[arena.TailStart].X = 700

		table := &arena.PoseTable{Frames: []arena.PoseFrame{
			straightFrame(0.95),
			straightFrame(0.99),
			longer,
			curled,
			straightFrame(0.85),
		}}
		size, err := EstimateBodySize(table, cal)
		require.NoError(t, err)
		assert.Equal(t, 3, size.FramesUsed)
		assert.InDelta(t, 8.0, size.Head, 1e-9)
		assert.InDelta(t, 24.0, size.Body, 1e-9)
		assert.Equal(t, SizeSourceAuto, size.BodySource)
	})

	t.Run("no qualifying frames", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: []arena.PoseFrame{straightFrame(0.5)}}
		size, err := EstimateBodySize(table, cal)
		assert.ErrorIs(t, err, arena.ErrInsufficientData)
		assert.True(t, math.IsNaN(size.Body))
		assert.True(t, math.IsNaN(size.Head))
	})

	t.Run("confidence equal to threshold is rejected", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: []arena.PoseFrame{straightFrame(0.9)}}
		_, err := EstimateBodySize(table, cal)
		assert.ErrorIs(t, err, arena.ErrInsufficientData)
	})
}

func TestMedian(t *testing.T) {
	t.Parallel()

	vals := []float64{5, 1, 3}
	assert.Equal(t, 3.0, Median(vals))
	assert.Equal(t, []float64{5, 1, 3}, vals)
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	cal := arena.DefaultCalibration()
	meta := arena.VideoMetadata{FPS: 30, FrameCount: 60}

	t.Run("steady animal", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: make([]arena.PoseFrame, 60)}
		for i := range table.Frames {
			table.Frames[i] = frameAt(600, 350, 0.9)
		}
		tr, err := Build(table, meta, cal)
		require.NoError(t, err)
		require.Equal(t, 60, tr.Len())
		assert.Equal(t, 60, tr.ValidCount())
		for i := range tr.X {
			assert.InDelta(t, 40.0, tr.X[i], 1e-9)
			assert.InDelta(t, 20.0, tr.Y[i], 1e-9)
		}
	})

	t.Run("short bursts are removed", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: make([]arena.PoseFrame, 60)}
		for i := range table.Frames {
			table.Frames[i] = frameAt(600, 350, 0.1)
		}
		for i := 20; i < 25; i++ {
			table.Frames[i] = frameAt(600, 350, 0.9)
		}
		tr, err := Build(table, meta, cal)
		require.NoError(t, err)
		assert.Equal(t, 0, tr.ValidCount())

		cal := cal
		cal.ClusterRemovalEnabled = false
		tr, err = Build(table, meta, cal)
		require.NoError(t, err)
		assert.Greater(t, tr.ValidCount(), 5)
	})

	t.Run("row count must match frame count", func(t *testing.T) {
		t.Parallel()
		table := &arena.PoseTable{Frames: make([]arena.PoseFrame, 59)}
		_, err := Build(table, meta, cal)
		assert.ErrorIs(t, err, arena.ErrInput)
	})
}
