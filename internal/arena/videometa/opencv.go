//go:build gocv
// +build gocv

package videometa

import (
	"context"
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/monitoring"
)

// OpenCV reads metadata through OpenCV's video capture properties.
type OpenCV struct{}

// NewOpenCV returns the OpenCV reader.
func NewOpenCV() (Reader, error) {
	return &OpenCV{}, nil
}

// Read opens the video, reads its properties and closes it again.
func (OpenCV) Read(ctx context.Context, path string) (arena.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return arena.VideoMetadata{}, err
	}
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%w: open video %s: %v", arena.ErrInput, path, err)
	}
	defer vc.Close()
	if !vc.IsOpened() {
		return arena.VideoMetadata{}, fmt.Errorf("%w: open video %s", arena.ErrInput, path)
	}

	meta := arena.VideoMetadata{
		FPS:        vc.Get(gocv.VideoCaptureFPS),
		FrameCount: int(math.Round(vc.Get(gocv.VideoCaptureFrameCount))),
	}
	if err := meta.Validate(); err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("[videometa] %s: %.3f fps, %d frames (opencv)", path, meta.FPS, meta.FrameCount)
	return meta, nil
}
