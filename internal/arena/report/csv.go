package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// WriteCSV writes the metrics table with a header row. Missing values are
// empty cells. Failed videos are not written.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range t.Rows {
		var rec []string
		if len(t.GroupColumns) > 0 {
			rec = append(rec, r.Groups...)
		} else {
			rec = append(rec, r.Filename)
		}
		for _, v := range r.Values {
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.Filename, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
