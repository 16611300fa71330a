// Package l3metrics owns Layer 3 (Metrics) of the open-field data model.
//
// Responsibilities: velocity on a ~1 Hz downsampled series, total and
// time-binned distance with gap extrapolation, wall distance and the
// is_moving / is_center occupancy fractions, and the grid-transition
// thigmotaxis statistic.
//
// Metrics whose denominator is empty are NaN, never 0.
//
// Dependency rule: L3 may depend on L1 and L2.
package l3metrics
