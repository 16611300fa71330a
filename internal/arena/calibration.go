package arena

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Size estimation modes.
const (
	SizeModeAuto   = "auto"
	SizeModeManual = "manual"
)

// Calibration is the fully resolved, immutable parameter set for one run.
// It is built once (see internal/config) and passed by value into every
// computation; nothing below the pipeline consults a settings store.
type Calibration struct {
	// Arena geometry.
	ArenaSideCM float64 `json:"arena_side_cm" validate:"gt=0"`
	ArenaSizePx int     `json:"arena_size_px" validate:"gt=0"`
	CornerPx    int     `json:"corner_px" validate:"gte=0"`

	// Trajectory fusion.
	TrajectoryDetectionThreshold float64 `json:"trajectory_detection_threshold" validate:"gte=0,lte=1"`
	MotionBlurSigma              float64 `json:"motion_blur_sigma" validate:"gt=0"`
	VelocityThreshold            float64 `json:"velocity_threshold" validate:"gte=0"`

	// Body and head size estimation.
	BodySizeDetectionThreshold float64 `json:"body_size_detection_threshold" validate:"gte=0,lte=1"`
	OnLineThreshold            float64 `json:"body_size_on_line_threshold" validate:"gt=0"`
	BodySizeMode               string  `json:"body_size_mode" validate:"oneof=auto manual"`
	HeadSizeMode               string  `json:"head_size_mode" validate:"oneof=auto manual"`
	ManualBodySize             float64 `json:"manual_body_size" validate:"gt=0"`
	ManualHeadSize             float64 `json:"manual_head_size" validate:"gt=0"`

	// Metrics.
	ThigmotaxisBinCount int     `json:"thigmotaxis_bin_count" validate:"gte=1"`
	TimebinMinutes      float64 `json:"timebin_minutes" validate:"gt=0"`
	MaxTimeMinutes      float64 `json:"max_time_minutes" validate:"gt=0"`

	// Small cluster removal.
	ClusterRemovalEnabled bool    `json:"cluster_removal_enabled"`
	MinClusterSizeSeconds float64 `json:"min_cluster_size_seconds" validate:"gte=0"`
	ClusterPaddingFactor  float64 `json:"cluster_padding_factor" validate:"gte=0"`
}

// DefaultCalibration returns the production defaults.
func DefaultCalibration() Calibration {
	return Calibration{
		ArenaSideCM:                  80.0,
		ArenaSizePx:                  1000,
		CornerPx:                     100,
		TrajectoryDetectionThreshold: 0.6,
		MotionBlurSigma:              2.0,
		VelocityThreshold:            1.0,
		BodySizeDetectionThreshold:   0.9,
		OnLineThreshold:              0.25,
		BodySizeMode:                 SizeModeAuto,
		HeadSizeMode:                 SizeModeAuto,
		ManualBodySize:               1.0,
		ManualHeadSize:               1.0,
		ThigmotaxisBinCount:          25,
		TimebinMinutes:               5.0,
		MaxTimeMinutes:               math.Inf(1),
		ClusterRemovalEnabled:        true,
		MinClusterSizeSeconds:        1.0,
		ClusterPaddingFactor:         0.2,
	}
}

// Scale returns the pixel to centimetre factor.
func (c Calibration) Scale() float64 {
	return c.ArenaSideCM / float64(c.ArenaSizePx)
}

// PixelToCM converts one pixel coordinate (either axis) to arena
// centimetres.
func (c Calibration) PixelToCM(px float64) float64 {
	return (px - float64(c.CornerPx)) * c.Scale()
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every field and reports all violations wrapped in
// ErrCalibration.
func (c Calibration) Validate() error {
	var problems []string
	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrCalibration, err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag()+paramSuffix(fe.Param()), fe.Value()))
		}
	}
	if math.IsInf(c.TimebinMinutes, 0) {
		problems = append(problems, "TimebinMinutes must be finite")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrCalibration, strings.Join(problems, "; "))
	}
	return nil
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
