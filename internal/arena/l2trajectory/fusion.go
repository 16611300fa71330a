package l2trajectory

import (
	"math"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// FuseKeypoints builds the raw centroid series: each keypoint is mapped to
// arena centimetres and the three are averaged with their confidences as
// weights. A frame whose best keypoint confidence is below the trajectory
// detection threshold is missing whatever its coordinates; a single
// confident keypoint is not enough evidence on its own.
func FuseKeypoints(table *arena.PoseTable, cal arena.Calibration) (xs, ys []float64) {
	n := table.Len()
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i, frame := range table.Frames {
		xs[i], ys[i] = fuseFrame(frame, cal)
	}
	return xs, ys
}

func fuseFrame(frame arena.PoseFrame, cal arena.Calibration) (float64, float64) {
	if frame.MaxConfidence() < cal.TrajectoryDetectionThreshold {
		return math.NaN(), math.NaN()
	}

	var sx, sy, sw float64
	for _, o := range frame {
		// A keypoint without coordinates carries no weight.
		if math.IsNaN(o.X) || math.IsNaN(o.Y) {
			continue
		}
		sx += cal.PixelToCM(o.X) * o.Confidence
		sy += cal.PixelToCM(o.Y) * o.Confidence
		sw += o.Confidence
	}
	if sw == 0 {
		return math.NaN(), math.NaN()
	}
	return sx / sw, sy / sw
}
