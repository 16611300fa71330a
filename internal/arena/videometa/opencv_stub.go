//go:build !gocv
// +build !gocv

package videometa

import (
	"errors"
)

// ErrOpenCVUnavailable is returned when the binary was built without the
// gocv tag.
var ErrOpenCVUnavailable = errors.New("OpenCV support not compiled in (requires gocv build tag)")

// NewOpenCV reports that OpenCV support is missing.
func NewOpenCV() (Reader, error) {
	return nil, ErrOpenCVUnavailable
}
