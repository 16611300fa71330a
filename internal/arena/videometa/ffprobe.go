package videometa

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/banshee-data/openfield.report/internal/arena"
	"github.com/banshee-data/openfield.report/internal/monitoring"
)

// FFProbe reads metadata with the ffprobe binary.
type FFProbe struct {
	Binary string

	// run executes the probe; replaced in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewFFProbe returns a reader using binary, or "ffprobe" from PATH when
// binary is empty.
func NewFFProbe(binary string) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{Binary: binary, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%v: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Read probes the first video stream of path.
func (p *FFProbe) Read(ctx context.Context, path string) (arena.VideoMetadata, error) {
	run := p.run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, p.Binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate,r_frame_rate,nb_frames,duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%w: ffprobe %s: %v", arena.ErrInput, path, err)
	}
	meta, err := ParseProbe(out)
	if err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("[videometa] %s: %.3f fps, %d frames", path, meta.FPS, meta.FrameCount)
	return meta, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

// ParseProbe decodes ffprobe JSON output. The average frame rate is
// preferred over the nominal one; when the container carries no frame
// count it is estimated from duration and frame rate.
func ParseProbe(data []byte) (arena.VideoMetadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%w: decode ffprobe output: %v", arena.ErrInput, err)
	}
	if len(probe.Streams) == 0 {
		return arena.VideoMetadata{}, fmt.Errorf("%w: no video stream", arena.ErrInput)
	}
	s := probe.Streams[0]

	fps, err := parseRate(s.AvgFrameRate)
	if err != nil || fps <= 0 {
		fps, err = parseRate(s.RFrameRate)
	}
	if err != nil {
		return arena.VideoMetadata{}, fmt.Errorf("%w: frame rate: %v", arena.ErrInput, err)
	}

	frames, err := strconv.Atoi(strings.TrimSpace(s.NbFrames))
	if err != nil || frames <= 0 {
		dur, derr := strconv.ParseFloat(strings.TrimSpace(s.Duration), 64)
		if derr != nil {
			return arena.VideoMetadata{}, fmt.Errorf("%w: no frame count and no duration", arena.ErrInput)
		}
		frames = int(math.Round(dur * fps))
	}

	meta := arena.VideoMetadata{FPS: fps, FrameCount: frames}
	if err := meta.Validate(); err != nil {
		return arena.VideoMetadata{}, err
	}
	return meta, nil
}

// parseRate parses "30000/1001" or "25".
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("rate %q: %v", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("rate %q: %v", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("rate %q has zero denominator", s)
	}
	return n / d, nil
}
