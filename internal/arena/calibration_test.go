package arena

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCalibration_Valid(t *testing.T) {
	t.Parallel()

	cal := DefaultCalibration()
	require.NoError(t, cal.Validate())
	assert.InDelta(t, 0.08, cal.Scale(), 1e-15)
	assert.True(t, math.IsInf(cal.MaxTimeMinutes, 1))
}

func TestCalibration_PixelToCM(t *testing.T) {
	t.Parallel()

	cal := DefaultCalibration()
	assert.Equal(t, -8.0, cal.PixelToCM(0))
	assert.Equal(t, 0.0, cal.PixelToCM(100))
	assert.InDelta(t, 80.0, cal.PixelToCM(1100), 1e-9)
}

func TestCalibration_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Calibration)
		field  string
	}{
		{"zero arena size px", func(c *Calibration) { c.ArenaSizePx = 0 }, "ArenaSizePx"},
		{"negative arena side", func(c *Calibration) { c.ArenaSideCM = -1 }, "ArenaSideCM"},
		{"NaN arena side", func(c *Calibration) { c.ArenaSideCM = math.NaN() }, "ArenaSideCM"},
		{"negative corner", func(c *Calibration) { c.CornerPx = -5 }, "CornerPx"},
		{"threshold above one", func(c *Calibration) { c.TrajectoryDetectionThreshold = 1.5 }, "TrajectoryDetectionThreshold"},
		{"zero sigma", func(c *Calibration) { c.MotionBlurSigma = 0 }, "MotionBlurSigma"},
		{"unknown size mode", func(c *Calibration) { c.BodySizeMode = "guess" }, "BodySizeMode"},
		{"zero bins", func(c *Calibration) { c.ThigmotaxisBinCount = 0 }, "ThigmotaxisBinCount"},
		{"infinite timebin", func(c *Calibration) { c.TimebinMinutes = math.Inf(1) }, "TimebinMinutes"},
		{"zero max time", func(c *Calibration) { c.MaxTimeMinutes = 0 }, "MaxTimeMinutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cal := DefaultCalibration()
			tt.mutate(&cal)
			err := cal.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCalibration)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("reports every violation", func(t *testing.T) {
		t.Parallel()
		cal := DefaultCalibration()
		cal.ArenaSizePx = 0
		cal.MotionBlurSigma = -1
		err := cal.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ArenaSizePx")
		assert.Contains(t, err.Error(), "MotionBlurSigma")
	})
}
