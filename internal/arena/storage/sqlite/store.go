package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/openfield.report/internal/arena/pipeline"
	"github.com/banshee-data/openfield.report/internal/timeutil"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Run is one batch invocation.
type Run struct {
	RunID        string          `json:"run_id"`
	StartedAt    int64           `json:"started_at"`
	FinishedAt   int64           `json:"finished_at,omitempty"`
	SettingsJSON json.RawMessage `json:"settings_json,omitempty"`
	VideoCount   int             `json:"video_count"`
	FailedCount  int             `json:"failed_count"`
}

// Metric is one named metric value; NaN when missing.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// VideoRecord is the stored outcome of one video.
type VideoRecord struct {
	ResultID   string   `json:"result_id"`
	RunID      string   `json:"run_id"`
	VideoName  string   `json:"video_name"`
	VideoPath  string   `json:"video_path"`
	PosePath   string   `json:"pose_path,omitempty"`
	FPS        float64  `json:"fps"`
	FrameCount int      `json:"frame_count"`
	BodySize   float64  `json:"body_size"`
	HeadSize   float64  `json:"head_size"`
	BodySource string   `json:"body_source,omitempty"`
	HeadSource string   `json:"head_source,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	CreatedAt  int64    `json:"created_at"`
	Metrics    []Metric `json:"metrics"`
}

// NewVideoRecord flattens a batch result for storage.
func NewVideoRecord(runID string, res pipeline.VideoResult) *VideoRecord {
	rec := &VideoRecord{
		RunID:      runID,
		VideoName:  res.Job.Name,
		VideoPath:  res.Job.VideoPath,
		PosePath:   res.Job.PosePath,
		FPS:        res.Meta.FPS,
		FrameCount: res.Meta.FrameCount,
		BodySize:   math.NaN(),
		HeadSize:   math.NaN(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if a := res.Analysis; a != nil {
		rec.BodySize, rec.HeadSize = a.Sizes.Body, a.Sizes.Head
		rec.BodySource, rec.HeadSource = a.Sizes.BodySource, a.Sizes.HeadSource
		if a.Metrics != nil {
			for _, name := range a.Metrics.Names() {
				v, _ := a.Metrics.Get(name)
				rec.Metrics = append(rec.Metrics, Metric{Name: name, Value: v})
			}
		}
	}
	return rec
}

// Store is the results database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// connPragmas are applied to every pooled connection through the DSN.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock that stamps runs and results created without
// a timestamp.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a run. An empty RunID gets a new UUID and a zero
// StartedAt the current time.
func (s *Store) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt == 0 {
		run.StartedAt = s.clock.Now().UnixNano()
	}
	var settings interface{}
	if len(run.SettingsJSON) > 0 {
		settings = string(run.SettingsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (run_id, started_at, settings_json, video_count, failed_count)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, run.StartedAt, settings, run.VideoCount, run.FailedCount,
		)
		return err
	})
}

// FinishRun stamps a run's completion time and counts.
func (s *Store) FinishRun(runID string, finishedAt int64, videoCount, failedCount int) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`
			UPDATE analysis_runs SET finished_at = ?, video_count = ?, failed_count = ?
			WHERE run_id = ?`,
			finishedAt, videoCount, failedCount, runID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// GetRun loads a run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	var (
		run      Run
		finished sql.NullInt64
		settings sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT run_id, started_at, finished_at, settings_json, video_count, failed_count
		FROM analysis_runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.StartedAt, &finished, &settings, &run.VideoCount, &run.FailedCount)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	run.FinishedAt = finished.Int64
	if settings.Valid {
		run.SettingsJSON = json.RawMessage(settings.String)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, settings_json, video_count, failed_count
		FROM analysis_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			run      Run
			finished sql.NullInt64
			settings sql.NullString
		)
		if err := rows.Scan(&run.RunID, &run.StartedAt, &finished, &settings, &run.VideoCount, &run.FailedCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.FinishedAt = finished.Int64
		if settings.Valid {
			run.SettingsJSON = json.RawMessage(settings.String)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// InsertVideoResult stores one video and its metrics in a single
// transaction. An empty ResultID gets a new UUID.
func (s *Store) InsertVideoResult(rec *VideoRecord) error {
	if rec.ResultID == "" {
		rec.ResultID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.clock.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO video_results (
				result_id, run_id, video_name, video_path, pose_path,
				fps, frame_count, body_size, head_size, body_source, head_source,
				error, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ResultID, rec.RunID, rec.VideoName, rec.VideoPath, nullString(rec.PosePath),
			rec.FPS, rec.FrameCount, nullFloat(rec.BodySize), nullFloat(rec.HeadSize),
			nullString(rec.BodySource), nullString(rec.HeadSource),
			nullString(rec.Error), rec.DurationMs, rec.CreatedAt,
		)
		if err != nil {
			return err
		}

		for i, m := range rec.Metrics {
			if _, err := tx.Exec(`
				INSERT INTO video_metrics (result_id, ordinal, name, value) VALUES (?, ?, ?, ?)`,
				rec.ResultID, i, m.Name, nullFloat(m.Value),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// ListVideoResults returns the videos of a run sorted by name, each with
// its metrics in stored order.
func (s *Store) ListVideoResults(runID string) ([]*VideoRecord, error) {
	rows, err := s.db.Query(`
		SELECT result_id, run_id, video_name, video_path, pose_path,
			fps, frame_count, body_size, head_size, body_source, head_source,
			error, duration_ms, created_at
		FROM video_results WHERE run_id = ?
		ORDER BY video_name, created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list video results: %w", err)
	}
	defer rows.Close()

	var out []*VideoRecord
	byID := make(map[string]*VideoRecord)
	for rows.Next() {
		var (
			rec                             VideoRecord
			pose, bodySrc, headSrc, errText sql.NullString
			fps, body, head                 sql.NullFloat64
			frames                          sql.NullInt64
		)
		if err := rows.Scan(&rec.ResultID, &rec.RunID, &rec.VideoName, &rec.VideoPath, &pose,
			&fps, &frames, &body, &head, &bodySrc, &headSrc,
			&errText, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video result: %w", err)
		}
		rec.PosePath, rec.BodySource, rec.HeadSource, rec.Error = pose.String, bodySrc.String, headSrc.String, errText.String
		rec.FPS, rec.FrameCount = fps.Float64, int(frames.Int64)
		rec.BodySize, rec.HeadSize = floatOrNaN(body), floatOrNaN(head)
		out = append(out, &rec)
		byID[rec.ResultID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	mrows, err := s.db.Query(`
		SELECT m.result_id, m.name, m.value
		FROM video_metrics m JOIN video_results r ON r.result_id = m.result_id
		WHERE r.run_id = ?
		ORDER BY m.result_id, m.ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("list video metrics: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			id, name string
			value    sql.NullFloat64
		)
		if err := mrows.Scan(&id, &name, &value); err != nil {
			return nil, fmt.Errorf("scan video metric: %w", err)
		}
		if rec, ok := byID[id]; ok {
			rec.Metrics = append(rec.Metrics, Metric{Name: name, Value: floatOrNaN(value)})
		}
	}
	return out, mrows.Err()
}

func nullFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
