package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/arena/videometa"
	"github.com/banshee-data/openfield.report/internal/fsutil"
	"github.com/banshee-data/openfield.report/internal/monitoring"
	"github.com/banshee-data/openfield.report/internal/timeutil"
)

// DefaultWorkers is the batch concurrency when none is configured.
const DefaultWorkers = 4

// Runner analyses a batch of videos concurrently.
type Runner struct {
	FS          fsutil.FileSystem
	Meta        videometa.Reader
	Calibration arena.Calibration
	// Workers bounds concurrent videos; values below 1 use DefaultWorkers.
	Workers int
	// Clock times each video; nil uses the wall clock.
	Clock timeutil.Clock
	// OnResult, if set, is called once per finished video. Calls are
	// serialised.
	OnResult func(VideoResult)
}

// Run processes jobs and returns one result per job in job order. Video
// failures are recorded on their results. The returned error is non-nil
// only when ctx is cancelled; jobs not started by then carry ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]VideoResult, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	workers := r.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	results := make([]VideoResult, len(jobs))
	var cbMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = VideoResult{Job: jobs[j], Err: err}
			}
			break
		}
		monitoring.Logf("Processing video %d of %d: %s", i+1, len(jobs), job.Name)

		g.Go(func() error {
			res := VideoResult{Job: job, Started: clock.Now()}
			res.Analysis, res.Meta, res.Err = ProcessVideo(ctx, r.FS, r.Meta, job, r.Calibration)
			res.Duration = clock.Since(res.Started)

			if res.Err != nil {
				monitoring.Logger().Error().Err(res.Err).Str("video", job.Name).Msg("video failed")
			} else {
				monitoring.Logger().Info().
					Str("video", job.Name).
					Dur("took", res.Duration).
					Float64("body_cm", res.Analysis.Sizes.Body).
					Str("body_source", res.Analysis.Sizes.BodySource).
					Msg("video analysed")
			}

			results[i] = res
			if r.OnResult != nil {
				cbMu.Lock()
				r.OnResult(res)
				cbMu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors; failures live on the results.
	_ = g.Wait()
	return results, ctx.Err()
}
