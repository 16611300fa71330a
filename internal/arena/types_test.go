package arena

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeypointNames(t *testing.T) {
	t.Parallel()

	for k := Keypoint(0); k < NumKeypoints; k++ {
		got, ok := KeypointByName(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := KeypointByName("tail_end")
	assert.False(t, ok)
}

func TestPoseFrameConfidence(t *testing.T) {
	t.Parallel()

	f := PoseFrame{
		{X: 1, Y: 1, Confidence: 0.2},
		{X: 2, Y: 2, Confidence: 0.95},
		{X: 3, Y: 3, Confidence: 0.5},
	}
	assert.Equal(t, 0.95, f.MaxConfidence())
	assert.Equal(t, 0.2, f.MinConfidence())
}

func TestVideoMetadata_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		meta    VideoMetadata
		wantErr bool
	}{
		{"valid", VideoMetadata{FPS: 30, FrameCount: 900}, false},
		{"zero fps", VideoMetadata{FPS: 0, FrameCount: 900}, true},
		{"NaN fps", VideoMetadata{FPS: math.NaN(), FrameCount: 900}, true},
		{"infinite fps", VideoMetadata{FPS: math.Inf(1), FrameCount: 900}, true},
		{"zero frames", VideoMetadata{FPS: 30, FrameCount: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrajectory_ValidCount(t *testing.T) {
	t.Parallel()

	tr := &Trajectory{
		X: []float64{1, math.NaN(), 3, 4},
		Y: []float64{1, 2, math.NaN(), 4},
		T: []float64{0, 1, 2, 3},
	}
	assert.Equal(t, 4, tr.Len())
	assert.Equal(t, 2, tr.ValidCount())
	assert.Equal(t, 0, (*PoseTable)(nil).Len())
}
