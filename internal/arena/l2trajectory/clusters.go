package l2trajectory

import (
	"math"
)

// Run is a maximal stretch of consecutive non-missing samples,
// half-open [Start, End).
type Run struct {
	Start int
	End   int
}

// Len returns the number of samples in the run.
func (r Run) Len() int { return r.End - r.Start }

// ValidRuns returns every maximal run of non-missing samples in order.
func ValidRuns(vals []float64) []Run {
	var runs []Run
	start := -1
	for i, v := range vals {
		if !math.IsNaN(v) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, Run{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Start: start, End: len(vals)})
	}
	return runs
}

// ClusterSize converts the minimum cluster duration into samples at the
// detected frame rate.
func ClusterSize(minSeconds float64, fps int) int {
	return int(math.Round(minSeconds * float64(fps)))
}

// ClusterPadding returns the number of extra samples blanked on each side of
// a removed cluster, at least one.
func ClusterPadding(clusterSize int, factor float64) int {
	pad := int(math.Round(factor * float64(clusterSize)))
	if pad < 1 {
		pad = 1
	}
	return pad
}

// RemoveSmallClusters blanks every run of at most clusterSize valid samples
// together with padding samples on both sides (clamped to the series).
// Padding can cut into a neighbouring run, so removal repeats until every
// surviving run is longer than clusterSize. The input is not modified.
func RemoveSmallClusters(vals []float64, clusterSize, padding int) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	if clusterSize <= 0 {
		return out
	}

	for {
		removed := false
		for _, r := range ValidRuns(out) {
			if r.Len() > clusterSize {
				continue
			}
			lo := max(r.Start-padding, 0)
			hi := min(r.End+padding, len(out))
			for i := lo; i < hi; i++ {
				out[i] = math.NaN()
			}
			removed = true
		}
		if !removed {
			return out
		}
	}
}
