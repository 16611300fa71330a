package report

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/banshee-data/openfield.report/internal/arena/pipeline"
)

// FilenameColumn heads the identity column when no grouping fields are
// configured.
const FilenameColumn = "Filename"

// Row is one analysed video.
type Row struct {
	Filename string
	// Groups holds one value per Table.GroupColumns entry.
	Groups   []string
	Values   []float64
	BodySize float64
	HeadSize float64
}

// Failure is a video that produced no metrics.
type Failure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Table is the metrics table of a batch.
type Table struct {
	GroupColumns  []string
	MetricColumns []string
	Rows          []Row
	Failures      []Failure
}

// Build assembles the table from batch results in their given order.
// Metric columns follow the first successful video; metrics only other
// videos carry are appended in first-seen order, and a metric a video
// lacks is NaN. With fields set, the file stem is split on "_" into one
// grouping column per field, empty where the name has too few parts.
func Build(results []pipeline.VideoResult, fields []string) Table {
	t := Table{GroupColumns: append([]string(nil), fields...)}

	seen := make(map[string]bool)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, name := range r.Analysis.Metrics.Names() {
			if !seen[name] {
				seen[name] = true
				t.MetricColumns = append(t.MetricColumns, name)
			}
		}
	}

	for _, r := range results {
		if !r.OK() {
			msg := "no result"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			t.Failures = append(t.Failures, Failure{Filename: r.Job.Name, Error: msg})
			continue
		}

		row := Row{
			Filename: r.Job.Name,
			Groups:   SplitFields(r.Job.Name, len(fields)),
			Values:   make([]float64, len(t.MetricColumns)),
			BodySize: r.Analysis.Sizes.Body,
			HeadSize: r.Analysis.Sizes.Head,
		}
		for i, name := range t.MetricColumns {
			v, ok := r.Analysis.Metrics.Get(name)
			if !ok {
				v = math.NaN()
			}
			row.Values[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SplitFields splits a file name without its extension on "_" into n
// parts, padding with empty strings.
func SplitFields(filename string, n int) []string {
	if n == 0 {
		return nil
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = parts[i]
		}
	}
	return out
}

// Header returns the column names: the grouping fields, or Filename when
// there are none, followed by the metrics.
func (t Table) Header() []string {
	var h []string
	if len(t.GroupColumns) > 0 {
		h = append(h, t.GroupColumns...)
	} else {
		h = append(h, FilenameColumn)
	}
	return append(h, t.MetricColumns...)
}
