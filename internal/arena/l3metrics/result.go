package l3metrics

import (
	"bytes"
	"math"

	"github.com/goccy/go-json"
)

// Metric names emitted for every video.
const (
	MetricIsMoving         = "is_moving"
	MetricIsCenter         = "is_center"
	MetricIsMovingInCenter = "is_moving_in_center"
	MetricThigmotaxis      = "thigmotaxis"
	MetricTotalDistance    = "total_distance"
)

// Result is the flat metrics record of one video. Names keep insertion
// order so tables and reports list them consistently.
type Result struct {
	names  []string
	values map[string]float64
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{values: make(map[string]float64)}
}

// Set stores a metric, keeping the position of an existing name.
func (r *Result) Set(name string, v float64) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns a metric and whether it exists.
func (r *Result) Get(name string) (float64, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns the metric names in insertion order.
func (r *Result) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of metrics.
func (r *Result) Len() int { return len(r.names) }

// Map returns a copy of the metrics as a plain map.
func (r *Result) Map() map[string]float64 {
	out := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the metrics as an ordered object. NaN becomes null so
// that insufficient data stays distinguishable from a measured 0.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := r.values[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
