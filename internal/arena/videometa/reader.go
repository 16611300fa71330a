package videometa

import (
	"context"
	"fmt"
	"strings"

	"github.com/banshee-data/openfield.report/internal/arena"
)

// Backend names accepted by New.
const (
	BackendFFProbe = "ffprobe"
	BackendOpenCV  = "opencv"
)

// Reader returns the metadata of the video at path.
type Reader interface {
	Read(ctx context.Context, path string) (arena.VideoMetadata, error)
}

// Static is a Reader returning the same metadata for every path.
type Static struct {
	Meta arena.VideoMetadata
}

// Read validates and returns the fixed metadata.
func (s Static) Read(_ context.Context, _ string) (arena.VideoMetadata, error) {
	if err := s.Meta.Validate(); err != nil {
		return arena.VideoMetadata{}, err
	}
	return s.Meta, nil
}

// New returns the Reader for a backend name. An empty name selects ffprobe.
func New(backend string) (Reader, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFFProbe:
		return NewFFProbe(""), nil
	case BackendOpenCV:
		return NewOpenCV()
	default:
		return nil, fmt.Errorf("unknown video metadata backend %q (want %s or %s)", backend, BackendFFProbe, BackendOpenCV)
	}
}
