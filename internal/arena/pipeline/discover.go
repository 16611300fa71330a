package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/openfield.report/internal/fsutil"
	"github.com/banshee-data/openfield.report/internal/monitoring"
)

// VideoExtensions lists the container formats picked up from a video
// directory.
var VideoExtensions = []string{".mp4", ".avi", ".mov"}

// poseMarker separates the video stem from the pose estimator's suffix in
// pose file names, e.g. "mouse1DLC_resnet50_openfieldShuffle1.csv".
const poseMarker = "DLC"

// PoseStem returns the video stem a pose file belongs to.
func PoseStem(posePath string) string {
	base := filepath.Base(posePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(base, poseMarker); i > 0 {
		return base[:i]
	}
	return base
}

// DiscoverJobs pairs every video in videoDir with the pose CSV in poseDir
// whose stem matches. Videos without a pose table are still returned, with
// an empty PosePath, so they show up as failures instead of disappearing.
// Jobs are sorted by name.
func DiscoverJobs(fs fsutil.FileSystem, videoDir, poseDir string) ([]Job, error) {
	var videos []string
	for _, ext := range VideoExtensions {
		for _, pattern := range []string{"*" + ext, "*" + strings.ToUpper(ext)} {
			m, err := fs.Glob(filepath.Join(videoDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("list videos in %s: %w", videoDir, err)
			}
			videos = append(videos, m...)
		}
	}

	poses, err := fs.Glob(filepath.Join(poseDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list pose tables in %s: %w", poseDir, err)
	}
	byStem := make(map[string]string, len(poses))
	for _, p := range poses {
		stem := PoseStem(p)
		if prev, ok := byStem[stem]; ok {
			monitoring.Logf("[pipeline] %s: several pose tables, using %s (ignoring %s)", stem, prev, p)
			continue
		}
		byStem[stem] = p
	}

	seen := make(map[string]bool, len(videos))
	used := make(map[string]bool, len(byStem))
	jobs := make([]Job, 0, len(videos))
	for _, v := range videos {
		if seen[v] {
			continue
		}
		seen[v] = true
		job := NewJob(v, "")
		job.PosePath = byStem[job.Stem()]
		used[job.Stem()] = true
		jobs = append(jobs, job)
	}
	for _, p := range poses {
		if stem := PoseStem(p); !used[stem] {
			monitoring.Logf("[pipeline] pose table %s has no video %s.*, skipped", p, stem)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs, nil
}
