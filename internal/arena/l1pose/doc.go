// Package l1pose owns Layer 1 (Pose ingest) of the open-field data model.
//
// Responsibilities: parsing the pose estimator's CSV output (three header
// rows: scorer, bodyparts, coords; first column is the frame index) into an
// arena.PoseTable. Columns are located by bodypart and coordinate name, so
// tables with extra bodyparts are accepted.
//
// Dependency rule: L1 depends only on the arena package.
package l1pose
