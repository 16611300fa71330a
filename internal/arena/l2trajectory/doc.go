// Package l2trajectory owns Layer 2 (Trajectory) of the open-field data
// model.
//
// Responsibilities: synthesizing the session clock, fusing the three
// keypoints into one calibrated centroid, removing short noise bursts,
// NaN-aware Gaussian smoothing, and estimating body and head size from the
// raw keypoint geometry.
//
// Missing samples are NaN throughout. Every function returns fresh slices
// and leaves its inputs untouched.
//
// Dependency rule: L2 may depend on L1, never on L3.
package l2trajectory
