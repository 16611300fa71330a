package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/fsutil"
)

// EnvPrefix marks environment variables that override settings, e.g.
// OPENFIELD_ARENA_SIDE_CM=90.
const EnvPrefix = "OPENFIELD_"

// maxFileSize bounds settings and project files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// PipelineSettings is the settings file schema. Keys match the
// pipeline_settings.json written by the desktop tool so existing files load
// unchanged; unknown keys are ignored. Every field is optional and the Get*
// methods fall back to the production defaults.
type PipelineSettings struct {
	// Arena calibration
	ArenaSideCM *float64 `json:"arena_side_cm,omitempty" koanf:"arena_side_cm"`
	ArenaSizePx *int     `json:"arena_size_px,omitempty" koanf:"arena_size_px"`
	CornerPx    *int     `json:"corner_px,omitempty" koanf:"corner_px"`

	// Trajectory
	TrajectoryDetectionThreshold *float64 `json:"trajectory_detection_threshold,omitempty" koanf:"trajectory_detection_threshold"`
	MotionBlurSigma              *float64 `json:"motion_blur_sigma,omitempty" koanf:"motion_blur_sigma"`
	VelocityThreshold            *float64 `json:"velocity_threshold,omitempty" koanf:"velocity_threshold"`

	// Body and head size
	BodySizeMode               *string  `json:"body_size_mode,omitempty" koanf:"body_size_mode"`
	HeadSizeMode               *string  `json:"head_size_mode,omitempty" koanf:"head_size_mode"`
	ManualBodySize             *float64 `json:"manual_body_size,omitempty" koanf:"manual_body_size"`
	ManualHeadSize             *float64 `json:"manual_head_size,omitempty" koanf:"manual_head_size"`
	BodySizeDetectionThreshold *float64 `json:"body_size_detection_threshold,omitempty" koanf:"body_size_detection_threshold"`
	BodySizeOnLineThreshold    *float64 `json:"body_size_on_line_threshold,omitempty" koanf:"body_size_on_line_threshold"`

	// Metrics
	ThigmotaxisBinCount *int     `json:"thigmotaxis_bin_count,omitempty" koanf:"thigmotaxis_bin_count"`
	TimebinMinutes      *float64 `json:"timebin_minutes,omitempty" koanf:"timebin_minutes"`
	MaxTimeMinutes      *float64 `json:"max_time_minutes,omitempty" koanf:"max_time_minutes"` // nil: whole session

	// Small cluster removal
	ClusterRemovalEnabled *bool    `json:"cluster_removal_enabled,omitempty" koanf:"cluster_removal_enabled"`
	MinClusterSizeSeconds *float64 `json:"min_cluster_size_seconds,omitempty" koanf:"min_cluster_size_seconds"`
	ClusterPaddingFactor  *float64 `json:"cluster_padding_factor,omitempty" koanf:"cluster_padding_factor"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySettings returns settings with every field unset.
func EmptySettings() *PipelineSettings {
	return &PipelineSettings{}
}

// DefaultSettings returns settings with every field set to its default.
// MaxTimeMinutes stays nil, meaning no limit.
func DefaultSettings() *PipelineSettings {
	d := arena.DefaultCalibration()
	return &PipelineSettings{
		ArenaSideCM:                  ptrFloat64(d.ArenaSideCM),
		ArenaSizePx:                  ptrInt(d.ArenaSizePx),
		CornerPx:                     ptrInt(d.CornerPx),
		TrajectoryDetectionThreshold: ptrFloat64(d.TrajectoryDetectionThreshold),
		MotionBlurSigma:              ptrFloat64(d.MotionBlurSigma),
		VelocityThreshold:            ptrFloat64(d.VelocityThreshold),
		BodySizeMode:                 ptrString(d.BodySizeMode),
		HeadSizeMode:                 ptrString(d.HeadSizeMode),
		ManualBodySize:               ptrFloat64(d.ManualBodySize),
		ManualHeadSize:               ptrFloat64(d.ManualHeadSize),
		BodySizeDetectionThreshold:   ptrFloat64(d.BodySizeDetectionThreshold),
		BodySizeOnLineThreshold:      ptrFloat64(d.OnLineThreshold),
		ThigmotaxisBinCount:          ptrInt(d.ThigmotaxisBinCount),
		TimebinMinutes:               ptrFloat64(d.TimebinMinutes),
		ClusterRemovalEnabled:        ptrBool(d.ClusterRemovalEnabled),
		MinClusterSizeSeconds:        ptrFloat64(d.MinClusterSizeSeconds),
		ClusterPaddingFactor:         ptrFloat64(d.ClusterPaddingFactor),
	}
}

// Load layers defaults, the optional settings file at path (JSON or YAML)
// read from fsys and OPENFIELD_* environment variables, in that order of
// precedence.
func Load(fsys fsutil.FileSystem, path string) (*PipelineSettings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		cleanPath, err := checkFile(fsys, path, ".json", ".yaml", ".yml")
		if err != nil {
			return nil, err
		}
		// YAML is a superset of JSON, so one parser reads both.
		if err := k.Load(fsProvider{fsys: fsys, path: cleanPath}, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
		}
	}

	if err := k.Load(envProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := EmptySettings()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envProvider maps OPENFIELD_ARENA_SIDE_CM to arena_side_cm.
func envProvider() *env.Env {
	return env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	})
}

// Record returns the settings as JSON for the run history. Non-finite
// values are left out, so an infinite max_time_minutes reads back as the
// unset default (no limit).
func (c *PipelineSettings) Record() ([]byte, error) {
	cp := *c
	for _, f := range []**float64{
		&cp.ArenaSideCM, &cp.TrajectoryDetectionThreshold, &cp.MotionBlurSigma,
		&cp.VelocityThreshold, &cp.ManualBodySize, &cp.ManualHeadSize,
		&cp.BodySizeDetectionThreshold, &cp.BodySizeOnLineThreshold,
		&cp.TimebinMinutes, &cp.MaxTimeMinutes, &cp.MinClusterSizeSeconds,
		&cp.ClusterPaddingFactor,
	} {
		if *f != nil && (math.IsNaN(**f) || math.IsInf(**f, 0)) {
			*f = nil
		}
	}
	return json.Marshal(&cp)
}

// Validate checks the settings by resolving them into a calibration.
func (c *PipelineSettings) Validate() error {
	_, err := c.Resolve()
	return err
}

// Resolve produces the immutable calibration used by the analysis. It is
// the only place where defaults are applied.
func (c *PipelineSettings) Resolve() (arena.Calibration, error) {
	cal := arena.Calibration{
		ArenaSideCM:                  c.GetArenaSideCM(),
		ArenaSizePx:                  c.GetArenaSizePx(),
		CornerPx:                     c.GetCornerPx(),
		TrajectoryDetectionThreshold: c.GetTrajectoryDetectionThreshold(),
		MotionBlurSigma:              c.GetMotionBlurSigma(),
		VelocityThreshold:            c.GetVelocityThreshold(),
		BodySizeDetectionThreshold:   c.GetBodySizeDetectionThreshold(),
		OnLineThreshold:              c.GetBodySizeOnLineThreshold(),
		BodySizeMode:                 c.GetBodySizeMode(),
		HeadSizeMode:                 c.GetHeadSizeMode(),
		ManualBodySize:               c.GetManualBodySize(),
		ManualHeadSize:               c.GetManualHeadSize(),
		ThigmotaxisBinCount:          c.GetThigmotaxisBinCount(),
		TimebinMinutes:               c.GetTimebinMinutes(),
		MaxTimeMinutes:               c.GetMaxTimeMinutes(),
		ClusterRemovalEnabled:        c.GetClusterRemovalEnabled(),
		MinClusterSizeSeconds:        c.GetMinClusterSizeSeconds(),
		ClusterPaddingFactor:         c.GetClusterPaddingFactor(),
	}
	if err := cal.Validate(); err != nil {
		return arena.Calibration{}, err
	}
	return cal, nil
}

var defaults = arena.DefaultCalibration()

// GetArenaSideCM returns the arena_side_cm value or the default.
func (c *PipelineSettings) GetArenaSideCM() float64 {
	if c.ArenaSideCM == nil {
		return defaults.ArenaSideCM
	}
	return *c.ArenaSideCM
}

// GetArenaSizePx returns the arena_size_px value or the default.
func (c *PipelineSettings) GetArenaSizePx() int {
	if c.ArenaSizePx == nil {
		return defaults.ArenaSizePx
	}
	return *c.ArenaSizePx
}

// GetCornerPx returns the corner_px value or the default.
func (c *PipelineSettings) GetCornerPx() int {
	if c.CornerPx == nil {
		return defaults.CornerPx
	}
	return *c.CornerPx
}

// GetTrajectoryDetectionThreshold returns the trajectory_detection_threshold value or the default.
func (c *PipelineSettings) GetTrajectoryDetectionThreshold() float64 {
	if c.TrajectoryDetectionThreshold == nil {
		return defaults.TrajectoryDetectionThreshold
	}
	return *c.TrajectoryDetectionThreshold
}

// GetMotionBlurSigma returns the motion_blur_sigma value or the default.
func (c *PipelineSettings) GetMotionBlurSigma() float64 {
	if c.MotionBlurSigma == nil {
		return defaults.MotionBlurSigma
	}
	return *c.MotionBlurSigma
}

// GetVelocityThreshold returns the velocity_threshold value or the default.
func (c *PipelineSettings) GetVelocityThreshold() float64 {
	if c.VelocityThreshold == nil {
		return defaults.VelocityThreshold
	}
	return *c.VelocityThreshold
}

// GetBodySizeMode returns the body_size_mode value or the default.
func (c *PipelineSettings) GetBodySizeMode() string {
	if c.BodySizeMode == nil || *c.BodySizeMode == "" {
		return defaults.BodySizeMode
	}
	return strings.ToLower(*c.BodySizeMode)
}

// GetHeadSizeMode returns the head_size_mode value or the default.
func (c *PipelineSettings) GetHeadSizeMode() string {
	if c.HeadSizeMode == nil || *c.HeadSizeMode == "" {
		return defaults.HeadSizeMode
	}
	return strings.ToLower(*c.HeadSizeMode)
}

// GetManualBodySize returns the manual_body_size value or the default.
func (c *PipelineSettings) GetManualBodySize() float64 {
	if c.ManualBodySize == nil {
		return defaults.ManualBodySize
	}
	return *c.ManualBodySize
}

// GetManualHeadSize returns the manual_head_size value or the default.
func (c *PipelineSettings) GetManualHeadSize() float64 {
	if c.ManualHeadSize == nil {
		return defaults.ManualHeadSize
	}
	return *c.ManualHeadSize
}

// GetBodySizeDetectionThreshold returns the body_size_detection_threshold value or the default.
func (c *PipelineSettings) GetBodySizeDetectionThreshold() float64 {
	if c.BodySizeDetectionThreshold == nil {
		return defaults.BodySizeDetectionThreshold
	}
	return *c.BodySizeDetectionThreshold
}

// GetBodySizeOnLineThreshold returns the body_size_on_line_threshold value or the default.
func (c *PipelineSettings) GetBodySizeOnLineThreshold() float64 {
	if c.BodySizeOnLineThreshold == nil {
		return defaults.OnLineThreshold
	}
	return *c.BodySizeOnLineThreshold
}

// GetThigmotaxisBinCount returns the thigmotaxis_bin_count value or the default.
func (c *PipelineSettings) GetThigmotaxisBinCount() int {
	if c.ThigmotaxisBinCount == nil {
		return defaults.ThigmotaxisBinCount
	}
	return *c.ThigmotaxisBinCount
}

// GetTimebinMinutes returns the timebin_minutes value or the default.
func (c *PipelineSettings) GetTimebinMinutes() float64 {
	if c.TimebinMinutes == nil {
		return defaults.TimebinMinutes
	}
	return *c.TimebinMinutes
}

// GetMaxTimeMinutes returns max_time_minutes, or +Inf when unset.
func (c *PipelineSettings) GetMaxTimeMinutes() float64 {
	if c.MaxTimeMinutes == nil {
		return math.Inf(1)
	}
	return *c.MaxTimeMinutes
}

// GetClusterRemovalEnabled returns the cluster_removal_enabled value or the default.
func (c *PipelineSettings) GetClusterRemovalEnabled() bool {
	if c.ClusterRemovalEnabled == nil {
		return defaults.ClusterRemovalEnabled
	}
	return *c.ClusterRemovalEnabled
}

// GetMinClusterSizeSeconds returns the min_cluster_size_seconds value or the default.
func (c *PipelineSettings) GetMinClusterSizeSeconds() float64 {
	if c.MinClusterSizeSeconds == nil {
		return defaults.MinClusterSizeSeconds
	}
	return *c.MinClusterSizeSeconds
}

// GetClusterPaddingFactor returns the cluster_padding_factor value or the default.
func (c *PipelineSettings) GetClusterPaddingFactor() float64 {
	if c.ClusterPaddingFactor == nil {
		return defaults.ClusterPaddingFactor
	}
	return *c.ClusterPaddingFactor
}
