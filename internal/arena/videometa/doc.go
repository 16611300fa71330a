// Package videometa reads the two video properties the analysis needs,
// frame rate and frame count.
//
// Backends:
//   - FFProbe shells out to ffprobe and is always available.
//   - OpenCV reads the container through gocv; it is compiled in only with
//     the gocv build tag and otherwise returns ErrOpenCVUnavailable.
//   - Static returns fixed values supplied on the command line.
//
// Every backend reports problems as arena.ErrInput so one unreadable video
// fails on its own without stopping a batch.
package videometa
