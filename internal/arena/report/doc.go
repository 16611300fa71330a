// Package report turns batch results into the metrics table: one row per
// video, optional grouping columns parsed from the file name, then one
// column per metric. Tables are written as CSV for spreadsheets and
// statistics tools, or as JSON with NaN encoded as null.
package report
