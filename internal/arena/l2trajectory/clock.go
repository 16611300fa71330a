package l2trajectory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// Timestamps returns the synthetic session clock t_i = i/fps for
// i = 0..frameCount-1.
func Timestamps(meta arena.VideoMetadata) ([]float64, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	ts := make([]float64, meta.FrameCount)
	for i := range ts {
		ts[i] = float64(i) / meta.FPS
	}
	return ts, nil
}

// DetectedFPS returns round(1/mean(dt)) for a clock, never less than 1.
// It needs at least two timestamps.
func DetectedFPS(ts []float64) (int, error) {
	if len(ts) < 2 {
		return 0, fmt.Errorf("%w: need at least two timestamps, got %d", arena.ErrInput, len(ts))
	}
	diffs := make([]float64, len(ts)-1)
	for i := range diffs {
		diffs[i] = ts[i+1] - ts[i]
	}
	meanDt := stat.Mean(diffs, nil)
	if !(meanDt > 0) {
		return 0, fmt.Errorf("%w: timestamps are not increasing", arena.ErrInput)
	}
	fps := int(math.Round(1 / meanDt))
	if fps < 1 {
		fps = 1
	}
	return fps, nil
}
