package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/openfield.report/internal/fsutil"
	"github.com/banshee-data/openfield.report/internal/monitoring"
	"github.com/banshee-data/openfield.report/internal/version"
)

var (
	videoPath   = flag.String("video", "", "Video file to analyse (single mode, needs -pose)")
	posePath    = flag.String("pose", "", "Pose estimator CSV for -video")
	videoDir    = flag.String("videos", "", "Directory of videos to analyse (batch mode, needs -poses)")
	poseDir     = flag.String("poses", "", "Directory of pose CSVs matching -videos")
	configPath  = flag.String("config", "", "Pipeline settings file (.json or .yaml)")
	projectPath = flag.String("project", "", "Project YAML with filename_structure.field_names")
	outPath     = flag.String("out", "", "Metrics CSV output path (default stdout)")
	jsonPath    = flag.String("json", "", "Optional JSON report output path")
	dbPath      = flag.String("db", "", "Optional SQLite database to record the run in")
	workers     = flag.Int("workers", 4, "Videos analysed concurrently")
	fps         = flag.Float64("fps", 0, "Override the video frame rate (requires -frames)")
	frames      = flag.Int("frames", 0, "Override the video frame count (requires -fps)")
	metaBackend = flag.String("metadata", "ffprobe", "Video metadata backend: ffprobe or opencv")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat   = flag.String("log-format", monitoring.FormatConsole, "Log format: console or json")
	logFile     = flag.String("log-file", "", "Also write JSON logs to this file, rotated at 10MB keeping 5 backups")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := monitoring.Init(monitoring.Config{Level: *logLevel, Format: *logFormat, File: *logFile}); err != nil {
		log.Fatalf("invalid logging flags: %v", err)
	}

	opts := options{
		Video:    *videoPath,
		Pose:     *posePath,
		VideoDir: *videoDir,
		PoseDir:  *poseDir,
		Config:   *configPath,
		Project:  *projectPath,
		Out:      *outPath,
		JSON:     *jsonPath,
		DB:       *dbPath,
		Workers:  *workers,
		FPS:      *fps,
		Frames:   *frames,
		Backend:  *metaBackend,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts, fsutil.OSFileSystem{}, os.Stdout)
	stop()

	if cerr := monitoring.Close(); cerr != nil {
		log.Printf("closing log file: %v", cerr)
	}
	if err != nil {
		log.Fatalf("openfield: %v", err)
	}
}
