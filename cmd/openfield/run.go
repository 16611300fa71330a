package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/arena/pipeline"
	"github.com/banshee-data/openfield.report/internal/arena/report"
	"github.com/banshee-data/openfield.report/internal/arena/storage/sqlite"
	"github.com/banshee-data/openfield.report/internal/arena/videometa"
	"github.com/banshee-data/openfield.report/internal/config"
	"github.com/banshee-data/openfield.report/internal/fsutil"
	"github.com/banshee-data/openfield.report/internal/monitoring"
	"github.com/banshee-data/openfield.report/internal/timeutil"
)

type options struct {
	Video    string
	Pose     string
	VideoDir string
	PoseDir  string
	Config   string
	Project  string
	Out      string
	JSON     string
	DB       string
	Workers  int
	FPS      float64
	Frames   int
	Backend  string
}

func (o options) validate() error {
	single := o.Video != "" || o.Pose != ""
	batch := o.VideoDir != "" || o.PoseDir != ""
	switch {
	case single && batch:
		return errors.New("use either -video/-pose or -videos/-poses, not both")
	case single && (o.Video == "" || o.Pose == ""):
		return errors.New("-video and -pose must be given together")
	case batch && (o.VideoDir == "" || o.PoseDir == ""):
		return errors.New("-videos and -poses must be given together")
	case !single && !batch:
		return errors.New("nothing to analyse: set -video/-pose or -videos/-poses")
	case (o.FPS > 0) != (o.Frames > 0):
		return errors.New("-fps and -frames must be given together")
	}
	return nil
}

func metadataReader(o options) (videometa.Reader, error) {
	if o.FPS > 0 {
		return videometa.Static{Meta: arena.VideoMetadata{FPS: o.FPS, FrameCount: o.Frames}}, nil
	}
	return videometa.New(o.Backend)
}

func run(ctx context.Context, o options, fsys fsutil.FileSystem, stdout io.Writer) error {
	if err := o.validate(); err != nil {
		return err
	}

	settings, err := config.Load(fsys, o.Config)
	if err != nil {
		return err
	}
	cal, err := settings.Resolve()
	if err != nil {
		return err
	}

	var fields []string
	if o.Project != "" {
		structure, err := config.LoadFilenameStructure(fsys, o.Project)
		if err != nil {
			return err
		}
		fields = structure.FieldNames
	}

	reader, err := metadataReader(o)
	if err != nil {
		return err
	}

	var jobs []pipeline.Job
	if o.Video != "" {
		jobs = []pipeline.Job{pipeline.NewJob(o.Video, o.Pose)}
	} else {
		jobs, err = pipeline.DiscoverJobs(fsys, o.VideoDir, o.PoseDir)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return fmt.Errorf("no videos found in %s", o.VideoDir)
		}
	}
	monitoring.Logf("Analysing %d video(s)", len(jobs))

	clock := timeutil.Clock(timeutil.RealClock{})
	started := clock.Now()
	var (
		store *sqlite.Store
		dbRun *sqlite.Run
	)
	if o.DB != "" {
		store, err = sqlite.Open(o.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetClock(clock)

		settingsJSON, err := settings.Record()
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		dbRun = &sqlite.Run{StartedAt: started.UnixNano(), SettingsJSON: settingsJSON}
		if err := store.CreateRun(dbRun); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
	}

	runner := &pipeline.Runner{
		FS:          fsys,
		Meta:        reader,
		Calibration: cal,
		Workers:     o.Workers,
		Clock:       clock,
	}
	if store != nil {
		runner.OnResult = func(res pipeline.VideoResult) {
			if err := store.InsertVideoResult(sqlite.NewVideoRecord(dbRun.RunID, res)); err != nil {
				monitoring.Logger().Error().Err(err).Str("video", res.Job.Name).Msg("failed to store result")
			}
		}
	}

	results, runErr := runner.Run(ctx, jobs)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if store != nil {
		if err := store.FinishRun(dbRun.RunID, clock.Now().UnixNano(), len(results), failed); err != nil {
			monitoring.Logger().Error().Err(err).Msg("failed to finish run")
		}
	}

	table := report.Build(results, fields)
	if err := writeOutput(fsys, o.Out, stdout, func(w io.Writer) error { return report.WriteCSV(w, table) }); err != nil {
		return err
	}
	if o.JSON != "" {
		if err := writeOutput(fsys, o.JSON, nil, func(w io.Writer) error { return report.WriteJSON(w, table) }); err != nil {
			return err
		}
	}

	monitoring.Logger().Info().
		Int("videos", len(results)).
		Int("failed", failed).
		Dur("took", clock.Since(started)).
		Msg("analysis finished")

	if runErr != nil {
		return runErr
	}
	if failed == len(results) {
		return fmt.Errorf("all %d video(s) failed", failed)
	}
	return nil
}

// writeOutput writes through fn to path, or to fallback when path is empty.
func writeOutput(fsys fsutil.FileSystem, path string, fallback io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(fallback)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
