package l3metrics

import (
	"math"
	"strconv"
)

// TimeBin is a half-open session window [Start, End) in seconds.
type TimeBin struct {
	Start float64
	End   float64
	// StartMin and EndMin are the window edges in minutes, used for labels.
	StartMin float64
	EndMin   float64
}

// Label returns the metric name of the bin, e.g. "D_0_5".
func (b TimeBin) Label() string {
	return "D_" + formatMinutes(b.StartMin) + "_" + formatMinutes(b.EndMin)
}

// TimeBins returns consecutive windows of widthMinutes, starting at 0 and
// stopping once a window would start after maxMinutes or after lastT
// (seconds). maxMinutes may be +Inf.
func TimeBins(lastT, widthMinutes, maxMinutes float64) []TimeBin {
	if !(widthMinutes > 0) || math.IsInf(widthMinutes, 0) || math.IsNaN(lastT) {
		return nil
	}
	width := widthMinutes * 60
	limit := maxMinutes * 60

	var bins []TimeBin
	for i := 0; ; i++ {
		start := float64(i) * width
		if start > limit || start > lastT {
			break
		}
		bins = append(bins, TimeBin{
			Start:    start,
			End:      float64(i+1) * width,
			StartMin: float64(i) * widthMinutes,
			EndMin:   float64(i+1) * widthMinutes,
		})
	}
	return bins
}

// formatMinutes prints the shortest decimal form, rounded to microminutes
// so that 3*0.1 prints as 0.3.
func formatMinutes(m float64) string {
	return strconv.FormatFloat(math.Round(m*1e6)/1e6, 'f', -1, 64)
}
