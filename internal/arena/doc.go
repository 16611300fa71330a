// Package arena owns the shared data model of the open-field analysis.
//
// Responsibilities: pose tables, video metadata, calibration and the
// fused trajectory types, plus the error taxonomy shared by every layer.
//
// Layers:
//   - l1pose: reading the pose estimator's CSV output into a PoseTable.
//   - l2trajectory: clock synthesis, keypoint fusion, gap repair, smoothing
//     and body/head size estimation.
//   - l3metrics: velocity-derived metrics, thigmotaxis and time bins.
//
// Around the layers, videometa reads fps and frame count, pipeline runs the
// layers per video and per batch, report builds the metrics table and
// storage/sqlite records runs.
//
// Dependency rule: L(n) may depend on L1..L(n-1) and on this package, never
// the reverse. No SQL/database code is allowed in the layer packages.
package arena
