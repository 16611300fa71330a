package report

import (
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"
)

type jsonVideo struct {
	Filename string            `json:"filename"`
	Groups   map[string]string `json:"groups,omitempty"`
	Metrics  orderedMetrics    `json:"metrics"`
	BodySize *float64          `json:"body_size"`
	HeadSize *float64          `json:"head_size"`
}

type jsonReport struct {
	Videos   []jsonVideo `json:"videos"`
	Failures []Failure   `json:"failures"`
}

// orderedMetrics encodes metric values as an object in column order, with
// NaN and infinities as null.
type orderedMetrics struct {
	names  []string
	values []float64
}

func (m orderedMetrics) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range m.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		val, err := json.Marshal(finite(m.values[i]))
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes the table as an indented JSON document holding every
// video and every failure.
func WriteJSON(w io.Writer, t Table) error {
	out := jsonReport{
		Videos:   make([]jsonVideo, 0, len(t.Rows)),
		Failures: t.Failures,
	}
	if out.Failures == nil {
		out.Failures = []Failure{}
	}

	for _, r := range t.Rows {
		v := jsonVideo{
			Filename: r.Filename,
			Metrics:  orderedMetrics{names: t.MetricColumns, values: r.Values},
			BodySize: finite(r.BodySize),
			HeadSize: finite(r.HeadSize),
		}
		if len(t.GroupColumns) > 0 {
			v.Groups = make(map[string]string, len(t.GroupColumns))
			for i, g := range t.GroupColumns {
				v.Groups[g] = r.Groups[i]
			}
		}
		out.Videos = append(out.Videos, v)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
