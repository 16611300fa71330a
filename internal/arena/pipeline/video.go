package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/arena/l1pose"
	"github.com/banshee-data/openfield.report/internal/arena/videometa"
	"github.com/banshee-data/openfield.report/internal/fsutil"
)

// Job pairs a video with its pose table.
type Job struct {
	// Name is the video file name, used for reports and grouping columns.
	Name      string
	VideoPath string
	PosePath  string
}

// NewJob builds a job named after the video file.
func NewJob(videoPath, posePath string) Job {
	return Job{Name: filepath.Base(videoPath), VideoPath: videoPath, PosePath: posePath}
}

// Stem returns the video name without extension.
func (j Job) Stem() string {
	return strings.TrimSuffix(j.Name, filepath.Ext(j.Name))
}

// VideoResult is the outcome of one job.
type VideoResult struct {
	Job      Job
	Meta     arena.VideoMetadata
	Analysis *Analysis
	Err      error
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the video was analysed.
func (r VideoResult) OK() bool { return r.Err == nil && r.Analysis != nil }

// ProcessVideo reads the metadata and pose table of one job and analyses
// them. Both reads happen once; nothing is retried.
func ProcessVideo(ctx context.Context, fs fsutil.FileSystem, meta videometa.Reader, job Job, cal arena.Calibration) (*Analysis, arena.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, arena.VideoMetadata{}, err
	}
	if job.PosePath == "" {
		return nil, arena.VideoMetadata{}, fmt.Errorf("%w: no pose table found for %s", arena.ErrInput, job.Name)
	}

	md, err := meta.Read(ctx, job.VideoPath)
	if err != nil {
		return nil, arena.VideoMetadata{}, err
	}
	table, err := l1pose.ReadCSV(fs, job.PosePath)
	if err != nil {
		return nil, md, err
	}

	a, err := ComputeMetrics(table, md, cal)
	if err != nil {
		return nil, md, err
	}
	return a, md, nil
}
