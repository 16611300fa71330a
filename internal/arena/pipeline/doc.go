// Package pipeline wires the arena layers into a per-video analysis and a
// batch runner.
//
// ComputeMetrics is the pure core: pose table, video metadata and
// calibration in, trajectory, size estimates and metrics out. ProcessVideo
// adds the two one-shot reads (metadata and pose CSV). Runner processes many
// videos with a bounded number of workers; a failing video is recorded on
// its VideoResult and never stops the others.
package pipeline
