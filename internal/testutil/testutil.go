// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless err wraps target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want one wrapping %v", err, target)
	}
}

// AssertNaN fails the test unless v is NaN.
func AssertNaN(t testing.TB, v float64) {
	t.Helper()
	if !math.IsNaN(v) {
		t.Errorf("got %v, want NaN", v)
	}
}

// AssertFloatsNear compares two series element-wise within tol. NaN only
// matches NaN.
func AssertFloatsNear(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		gn, wn := math.IsNaN(got[i]), math.IsNaN(want[i])
		switch {
		case gn && wn:
		case gn != wn:
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		case math.Abs(got[i]-want[i]) > tol:
			t.Errorf("[%d] = %v, want %v (tol %v)", i, got[i], want[i], tol)
		}
	}
}

// SteadyPose returns n frames with all keypoints at one pixel position.
func SteadyPose(n int, px, py, conf float64) []arena.PoseFrame {
	frames := make([]arena.PoseFrame, n)
	for i := range frames {
		for k := range frames[i] {
			frames[i][k] = arena.Observation{X: px, Y: py, Confidence: conf}
		}
	}
	return frames
}

// PoseCSV renders frames in the pose estimator's three-header-row layout.
func PoseCSV(scorer string, frames []arena.PoseFrame) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	scorerRow := []string{"scorer"}
	parts := []string{"bodyparts"}
	coords := []string{"coords"}
	for k := arena.Keypoint(0); k < arena.NumKeypoints; k++ {
		for _, c := range []string{"x", "y", "likelihood"} {
			scorerRow = append(scorerRow, scorer)
			parts = append(parts, k.String())
			coords = append(coords, c)
		}
	}
	_ = w.Write(scorerRow)
	_ = w.Write(parts)
	_ = w.Write(coords)

	for i, f := range frames {
		row := []string{strconv.Itoa(i)}
		for _, o := range f {
			row = append(row, formatCell(o.X), formatCell(o.Y), formatCell(o.Confidence))
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
