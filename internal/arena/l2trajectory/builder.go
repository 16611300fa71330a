package l2trajectory

import (
	"fmt"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// Build runs fusion, small-cluster removal and smoothing over one pose
// table and returns the cleaned trajectory on the synthesized clock.
// The pose table must have exactly one row per video frame.
func Build(table *arena.PoseTable, meta arena.VideoMetadata, cal arena.Calibration) (*arena.Trajectory, error) {
	ts, err := Timestamps(meta)
	if err != nil {
		return nil, err
	}
	if table.Len() != len(ts) {
		return nil, fmt.Errorf("%w: pose table has %d rows but video has %d frames",
			arena.ErrInput, table.Len(), len(ts))
	}
	fps, err := DetectedFPS(ts)
	if err != nil {
		return nil, err
	}

	xs, ys := FuseKeypoints(table, cal)

	if cal.ClusterRemovalEnabled {
		size := ClusterSize(cal.MinClusterSizeSeconds, fps)
		pad := ClusterPadding(size, cal.ClusterPaddingFactor)
		xs = RemoveSmallClusters(xs, size, pad)
		ys = RemoveSmallClusters(ys, size, pad)
	}

	return &arena.Trajectory{
		X: SmoothNaN(xs, cal.MotionBlurSigma),
		Y: SmoothNaN(ys, cal.MotionBlurSigma),
		T: ts,
	}, nil
}
