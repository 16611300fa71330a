package l1pose

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/fsutil"
)

// Coordinate column names of the header's third row.
const (
	CoordX          = "x"
	CoordY          = "y"
	CoordLikelihood = "likelihood"
)

const headerRows = 3

// columnIndex maps keypoint and coordinate to a CSV column.
type columnIndex [arena.NumKeypoints][3]int

// ReadCSV reads and parses the pose table at path.
func ReadCSV(fs fsutil.FileSystem, path string) (*arena.PoseTable, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pose table %s: %v", arena.ErrInput, path, err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("pose table %s: %w", path, err)
	}
	return table, nil
}

// Parse reads a pose table from r. Any structural or numeric problem is
// reported as arena.ErrInput.
func Parse(r io.Reader) (*arena.PoseTable, error) {
	cr := csv.NewReader(r)

	header := make([][]string, 0, headerRows)
	for len(header) < headerRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: expected %d header rows, got %d", arena.ErrInput, headerRows, len(header))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read header: %v", arena.ErrInput, err)
		}
		header = append(header, rec)
	}

	cols, err := locateColumns(header[1], header[2])
	if err != nil {
		return nil, err
	}

	table := &arena.PoseTable{}
	if len(header[0]) > 1 {
		table.Scorer = strings.TrimSpace(header[0][1])
	}

	for line := headerRows + 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", arena.ErrInput, line, err)
		}
		frame, err := parseFrame(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", arena.ErrInput, line, err)
		}
		table.Frames = append(table.Frames, frame)
	}

	if len(table.Frames) == 0 {
		return nil, fmt.Errorf("%w: pose table has no frames", arena.ErrInput)
	}
	return table, nil
}

func locateColumns(bodyparts, coords []string) (columnIndex, error) {
	var cols columnIndex
	for k := range cols {
		for c := range cols[k] {
			cols[k][c] = -1
		}
	}

	for j := 1; j < len(bodyparts) && j < len(coords); j++ {
		kp, ok := arena.KeypointByName(strings.TrimSpace(bodyparts[j]))
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(coords[j])) {
		case CoordX:
			cols[kp][0] = j
		case CoordY:
			cols[kp][1] = j
		case CoordLikelihood, "confidence":
			cols[kp][2] = j
		}
	}

	var missing []string
	for k := arena.Keypoint(0); k < arena.NumKeypoints; k++ {
		for c, name := range []string{CoordX, CoordY, CoordLikelihood} {
			if cols[k][c] < 0 {
				missing = append(missing, k.String()+"."+name)
			}
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: missing pose columns %s", arena.ErrInput, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseFrame(rec []string, cols columnIndex) (arena.PoseFrame, error) {
	var frame arena.PoseFrame
	for k := range cols {
		vals := [3]float64{}
		for c, j := range cols[k] {
			if j >= len(rec) {
				return frame, fmt.Errorf("row has %d fields, need column %d", len(rec), j+1)
			}
			v, err := parseCell(rec[j])
			if err != nil {
				return frame, fmt.Errorf("column %d: %v", j+1, err)
			}
			vals[c] = v
		}
		conf := vals[2]
		if math.IsNaN(conf) {
			conf = 0
		}
		if conf < 0 || conf > 1 {
			return frame, fmt.Errorf("%s confidence %v outside [0,1]", arena.Keypoint(k), conf)
		}
		frame[k] = arena.Observation{X: vals[0], Y: vals[1], Confidence: conf}
	}
	return frame, nil
}

// parseCell accepts empty cells as missing.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
