package l2trajectory

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// Size sources recorded alongside the body and head estimates.
const (
	SizeSourceAuto     = "auto"
	SizeSourceManual   = "manual"
	SizeSourceFallback = "fallback"
)

// BodySize holds the per-video size constants used as thresholds by the
// metrics layer, in centimetres.
type BodySize struct {
	Body float64
	Head float64
	// FramesUsed counts the frames that passed both the confidence and the
	// collinearity filter.
	FramesUsed int
	BodySource string
	HeadSource string
}

// PointLineDistance returns the perpendicular distance of b from the line
// through a and c. It is NaN when a and c coincide.
func PointLineDistance(ax, ay, bx, by, cx, cy float64) float64 {
	num := math.Abs((cy-ay)*bx - (cx-ax)*by + cx*ay - cy*ax)
	den := math.Hypot(cy-ay, cx-ax)
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// SegmentLengths returns the head (nose to neck) and body (neck to tail
// base) lengths of every frame whose three keypoints are all confident and
// roughly collinear. Curled-up postures fail the collinearity test.
func SegmentLengths(table *arena.PoseTable, cal arena.Calibration) (heads, bodies []float64) {
	for _, frame := range table.Frames {
		if !(frame.MinConfidence() > cal.BodySizeDetectionThreshold) {
			continue
		}
		ax, ay := cal.PixelToCM(frame[arena.Nose].X), cal.PixelToCM(frame[arena.Nose].Y)
		bx, by := cal.PixelToCM(frame[arena.Neck].X), cal.PixelToCM(frame[arena.Neck].Y)
		cx, cy := cal.PixelToCM(frame[arena.TailStart].X), cal.PixelToCM(frame[arena.TailStart].Y)

		// NaN distances fail the comparison and drop the frame.
		if !(PointLineDistance(ax, ay, bx, by, cx, cy) < cal.OnLineThreshold) {
			continue
		}
		heads = append(heads, math.Hypot(ax-bx, ay-by))
		bodies = append(bodies, math.Hypot(bx-cx, by-cy))
	}
	return heads, bodies
}

// EstimateBodySize reduces the filtered segment lengths to their medians.
// It returns arena.ErrInsufficientData when no frame survives the filters.
func EstimateBodySize(table *arena.PoseTable, cal arena.Calibration) (BodySize, error) {
	heads, bodies := SegmentLengths(table, cal)
	if len(bodies) == 0 {
		return BodySize{Body: math.NaN(), Head: math.NaN()}, fmt.Errorf(
			"%w: no frame passed confidence > %v and on-line distance < %v cm",
			arena.ErrInsufficientData, cal.BodySizeDetectionThreshold, cal.OnLineThreshold)
	}
	return BodySize{
		Body:       Median(bodies),
		Head:       Median(heads),
		FramesUsed: len(bodies),
		BodySource: SizeSourceAuto,
		HeadSource: SizeSourceAuto,
	}, nil
}

// Median returns the median of vals, averaging the two middle values for an
// even count. It is NaN for an empty slice. vals is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
