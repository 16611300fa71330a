package arena

import (
	"fmt"
	"math"
)

// Keypoint identifies one tracked anatomical point.
type Keypoint int

const (
	Nose Keypoint = iota
	Neck
	TailStart
	NumKeypoints
)

var keypointNames = [NumKeypoints]string{"nose", "neck", "tail_start"}

func (k Keypoint) String() string {
	if k >= 0 && k < NumKeypoints {
		return keypointNames[k]
	}
	return fmt.Sprintf("keypoint(%d)", int(k))
}

// KeypointByName returns the keypoint for a pose-estimator bodypart label.
func KeypointByName(name string) (Keypoint, bool) {
	for i, n := range keypointNames {
		if n == name {
			return Keypoint(i), true
		}
	}
	return 0, false
}

// Observation is one keypoint detection in pixel space.
type Observation struct {
	X          float64
	Y          float64
	Confidence float64
}

// PoseFrame holds the three keypoint observations of one video frame.
type PoseFrame [NumKeypoints]Observation

// MaxConfidence returns the highest keypoint confidence in the frame.
func (f PoseFrame) MaxConfidence() float64 {
	m := f[0].Confidence
	for _, o := range f[1:] {
		m = math.Max(m, o.Confidence)
	}
	return m
}

// MinConfidence returns the lowest keypoint confidence in the frame.
func (f PoseFrame) MinConfidence() float64 {
	m := f[0].Confidence
	for _, o := range f[1:] {
		m = math.Min(m, o.Confidence)
	}
	return m
}

// PoseTable is the raw pose estimator output for one video, one frame per
// row. It is treated as immutable once read.
type PoseTable struct {
	Scorer string
	Frames []PoseFrame
}

// Len returns the number of frames.
func (t *PoseTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Frames)
}

// VideoMetadata carries the only two properties of a video the analysis
// reads.
type VideoMetadata struct {
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
}

// Validate reports ErrInput for a non-positive frame rate or frame count.
func (m VideoMetadata) Validate() error {
	if !(m.FPS > 0) || math.IsInf(m.FPS, 0) {
		return fmt.Errorf("%w: fps must be positive and finite, got %v", ErrInput, m.FPS)
	}
	if m.FrameCount <= 0 {
		return fmt.Errorf("%w: frame count must be positive, got %d", ErrInput, m.FrameCount)
	}
	return nil
}

// Trajectory is the fused centroid path in arena centimetres. X and Y hold
// NaN where the position is missing; T is the synthesized session clock in
// seconds. All three slices have the same length.
type Trajectory struct {
	X []float64
	Y []float64
	T []float64
}

// Len returns the number of samples.
func (tr *Trajectory) Len() int { return len(tr.T) }

// ValidCount returns the number of samples with both coordinates present.
func (tr *Trajectory) ValidCount() int {
	n := 0
	for i := range tr.X {
		if !math.IsNaN(tr.X[i]) && !math.IsNaN(tr.Y[i]) {
			n++
		}
	}
	return n
}
