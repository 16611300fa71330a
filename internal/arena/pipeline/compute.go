package pipeline

import (
	"errors"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/arena/l2trajectory"
	"github.com/banshee-data/openfield.report/internal/arena/l3metrics"
	"github.com/banshee-data/openfield.report/internal/monitoring"
)

// Analysis is everything derived from one video.
type Analysis struct {
	Trajectory *arena.Trajectory
	Sizes      l2trajectory.BodySize
	Metrics    *l3metrics.Result
	Details    *l3metrics.Details
}

// ComputeMetrics runs the full analysis of one pose table. The calibration
// is validated before any computation; the result depends only on the
// arguments.
func ComputeMetrics(table *arena.PoseTable, meta arena.VideoMetadata, cal arena.Calibration) (*Analysis, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	tr, err := l2trajectory.Build(table, meta, cal)
	if err != nil {
		return nil, err
	}
	sizes, err := ResolveSizes(table, cal)
	if err != nil {
		return nil, err
	}

	res, details, err := l3metrics.Compute(tr, l3metrics.Sizes{Body: sizes.Body, Head: sizes.Head}, cal)
	if err != nil {
		return nil, err
	}
	return &Analysis{Trajectory: tr, Sizes: sizes, Metrics: res, Details: details}, nil
}

// ResolveSizes picks body and head length per their modes. Manual modes use
// the configured values. Auto modes use the pose estimate and fall back to
// the manual values when no frame qualifies, marking the source as
// fallback.
func ResolveSizes(table *arena.PoseTable, cal arena.Calibration) (l2trajectory.BodySize, error) {
	out := l2trajectory.BodySize{
		Body:       cal.ManualBodySize,
		Head:       cal.ManualHeadSize,
		BodySource: l2trajectory.SizeSourceManual,
		HeadSource: l2trajectory.SizeSourceManual,
	}
	if cal.BodySizeMode == arena.SizeModeManual && cal.HeadSizeMode == arena.SizeModeManual {
		return out, nil
	}

	est, err := l2trajectory.EstimateBodySize(table, cal)
	switch {
	case errors.Is(err, arena.ErrInsufficientData):
		monitoring.Logf("[pipeline] size estimate unavailable, using manual sizes: %v", err)
		if cal.BodySizeMode == arena.SizeModeAuto {
			out.BodySource = l2trajectory.SizeSourceFallback
		}
		if cal.HeadSizeMode == arena.SizeModeAuto {
			out.HeadSource = l2trajectory.SizeSourceFallback
		}
		return out, nil
	case err != nil:
		return l2trajectory.BodySize{}, err
	}

	out.FramesUsed = est.FramesUsed
	if cal.BodySizeMode == arena.SizeModeAuto {
		out.Body, out.BodySource = est.Body, l2trajectory.SizeSourceAuto
	}
	if cal.HeadSizeMode == arena.SizeModeAuto {
		out.Head, out.HeadSource = est.Head, l2trajectory.SizeSourceAuto
	}
	return out, nil
}
